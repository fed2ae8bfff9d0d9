package models

// Product is one orderable garment. ImageSlug names its catalog images
// on the static image host (<base>/<slug>.png, pattern previews
// <base>/<slug>_<pattern>.png).
type Product struct {
	Name      string `json:"name"`
	ImageSlug string `json:"image_slug"`
}

// ProductCategory groups products the way the item carousel presents
// them, one bubble per category.
type ProductCategory struct {
	Title    string    `json:"title"`
	Products []Product `json:"products"`
}

// ProductCatalog is the fixed 12-item lineup in carousel order.
var ProductCatalog = []ProductCategory{
	{
		Title: "Tシャツ系",
		Products: []Product{
			{Name: "ドライTシャツ", ImageSlug: "dry_tshirt"},
			{Name: "ハイクオリティーTシャツ", ImageSlug: "high_quality_tshirt"},
			{Name: "ドライロングTシャツ", ImageSlug: "dry_long_tshirt"},
			{Name: "ドライポロシャツ", ImageSlug: "dry_polo"},
		},
	},
	{
		Title: "スポーツユニフォーム系",
		Products: []Product{
			{Name: "ゲームシャツ", ImageSlug: "game_shirt"},
			{Name: "ベースボールシャツ", ImageSlug: "baseball_shirt"},
			{Name: "ストライプベースボールシャツ", ImageSlug: "stripe_baseball"},
			{Name: "ストライプユニフォーム", ImageSlug: "stripe_uniform"},
		},
	},
	{
		Title: "トレーナー・バスケ系",
		Products: []Product{
			{Name: "クールネックライトトレーナー", ImageSlug: "crew_trainer"},
			{Name: "ジップアップライトトレーナー", ImageSlug: "zip_trainer"},
			{Name: "フーディーライトトレーナー", ImageSlug: "hoodie_trainer"},
			{Name: "バスケシャツ", ImageSlug: "basketball_shirt"},
		},
	},
}

// ProductNames returns every product name in catalog order.
func ProductNames() []string {
	names := make([]string, 0, 12)
	for _, category := range ProductCatalog {
		for _, p := range category.Products {
			names = append(names, p.Name)
		}
	}
	return names
}

// ProductImageSlug resolves a product name to its image slug, empty
// when the name is not in the catalog.
func ProductImageSlug(name string) string {
	for _, category := range ProductCatalog {
		for _, p := range category.Products {
			if p.Name == name {
				return p.ImageSlug
			}
		}
	}
	return ""
}
