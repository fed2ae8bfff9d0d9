package services

import (
	"fmt"
	"strings"

	"github.com/ymgch/mitsumori/models"
	"github.com/ymgch/mitsumori/utils"
)

// Postback payloads carried by flex buttons. The order postbacks append
// the order number after the colon.
const (
	PostbackConsultDesign   = "CONSULT_DESIGN"
	PostbackConsultPersonal = "CONSULT_PERSONAL"
	PostbackWebOrder        = "WEB_ORDER"

	PostbackConfirmOrderPrefix = "CONFIRM_ORDER:"
	PostbackCancelOrderPrefix  = "CANCEL_ORDER:"
)

// buttonColor is the shop's brand color for primary flex buttons.
const buttonColor = "#000000"

func imageURL(baseURL, file string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + file
}

func messageButton(label string) map[string]any {
	return map[string]any{
		"type":   "button",
		"style":  "primary",
		"color":  buttonColor,
		"height": "sm",
		"action": map[string]any{
			"type":  "message",
			"label": label,
			"text":  label,
		},
	}
}

func postbackButton(label, data, style string) map[string]any {
	button := map[string]any{
		"type":  "button",
		"style": style,
		"action": map[string]any{
			"type":  "postback",
			"label": label,
			"data":  data,
		},
	}
	if style == "primary" {
		button["color"] = buttonColor
	}
	return button
}

// choicePrompt is the shared one-question bubble: a bold title, a short
// instruction, and one message button per accepted answer.
func choicePrompt(title, prompt, altText string, choices []string) Message {
	buttons := make([]any, 0, len(choices))
	for _, choice := range choices {
		buttons = append(buttons, messageButton(choice))
	}

	bubble := map[string]any{
		"type": "bubble",
		"hero": map[string]any{
			"type":   "box",
			"layout": "vertical",
			"contents": []any{
				map[string]any{"type": "text", "text": title, "weight": "bold", "size": "lg", "align": "center"},
				map[string]any{"type": "text", "text": prompt, "size": "sm", "wrap": true},
			},
		},
		"footer": map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"spacing":  "sm",
			"contents": buttons,
			"flex":     0,
		},
	}
	return NewFlexMessage(altText, bubble)
}

// UserTypePrompt asks whether the order is for a student or general
// customer.
func UserTypePrompt(choices []string) Message {
	return choicePrompt("❶属性", "ご利用者の属性を選択してください。", "属性を選択してください", choices)
}

// UsageDatePrompt asks how far out the usage date is, which decides the
// early discount.
func UsageDatePrompt(choices []string) Message {
	return choicePrompt("❷使用日", "ご使用日は、今日より? \n(注文日より使用日が14日目以降なら早割)", "使用日を選択してください", choices)
}

// BudgetPrompt asks for the rough budget band.
func BudgetPrompt(choices []string) Message {
	return choicePrompt("予算", "ご予算の目安を選択してください。", "予算を選択してください", choices)
}

// QuantityPrompt asks for the order quantity bracket.
func QuantityPrompt(choices []string) Message {
	return choicePrompt("❺枚数", "必要枚数を選択してください。", "必要枚数を選択してください", choices)
}

// PositionPrompt asks where the design is printed.
func PositionPrompt(choices []string) Message {
	return choicePrompt("プリント位置", "プリント位置を選択してください。", "プリント位置を選択してください", choices)
}

// ColorCountPrompt asks how many print colors each position uses.
func ColorCountPrompt(choices []string) Message {
	return choicePrompt("色数", "プリントの色数を選択してください。", "色数を選択してください", choices)
}

// BackNamePrompt asks whether names or numbers go on the back.
func BackNamePrompt(choices []string) Message {
	return choicePrompt("背ネーム・番号", "背ネーム・番号の有無を選択してください。", "背ネーム・番号を選択してください", choices)
}

func catalogImage(baseURL string, product models.Product) map[string]any {
	return map[string]any{
		"type":        "image",
		"url":         imageURL(baseURL, product.ImageSlug+".png"),
		"size":        "sm",
		"aspectMode":  "cover",
		"aspectRatio": "1:1",
		"action": map[string]any{
			"type":  "message",
			"label": product.Name,
			"text":  product.Name,
		},
	}
}

// ItemCarousel renders the product picker: one bubble per category with
// a two-by-two grid of tappable product images.
func ItemCarousel(baseURL string) Message {
	bubbles := make([]any, 0, len(models.ProductCatalog))
	for _, category := range models.ProductCatalog {
		topRow := make([]any, 0, 2)
		bottomRow := make([]any, 0, 2)
		for i, product := range category.Products {
			if i < 2 {
				topRow = append(topRow, catalogImage(baseURL, product))
			} else {
				bottomRow = append(bottomRow, catalogImage(baseURL, product))
			}
		}

		bubbles = append(bubbles, map[string]any{
			"type": "bubble",
			"body": map[string]any{
				"type":    "box",
				"layout":  "vertical",
				"spacing": "md",
				"contents": []any{
					map[string]any{"type": "text", "text": "③商品カテゴリー：" + category.Title, "weight": "bold", "size": "lg", "align": "center"},
					map[string]any{
						"type":    "box",
						"layout":  "vertical",
						"spacing": "sm",
						"contents": []any{
							map[string]any{"type": "box", "layout": "horizontal", "spacing": "sm", "contents": topRow},
							map[string]any{"type": "box", "layout": "horizontal", "spacing": "sm", "contents": bottomRow},
						},
					},
				},
			},
		})
	}

	return NewFlexMessage("商品カテゴリーを選択してください", map[string]any{
		"type":     "carousel",
		"contents": bubbles,
	})
}

// PatternCarousel renders one bubble per print pattern with its preview
// image for the chosen product.
func PatternCarousel(baseURL, imageSlug string, patterns []string) Message {
	bubbles := make([]any, 0, len(patterns))
	for _, p := range patterns {
		bubbles = append(bubbles, map[string]any{
			"type": "bubble",
			"hero": map[string]any{
				"type":        "image",
				"url":         imageURL(baseURL, fmt.Sprintf("%s_%s.png", imageSlug, p)),
				"size":        "full",
				"aspectMode":  "cover",
				"aspectRatio": "1:1",
			},
			"body": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []any{
					map[string]any{"type": "text", "text": fmt.Sprintf("パターン%sで金額を確認", p), "wrap": true, "weight": "bold", "align": "center"},
				},
			},
			"footer": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []any{
					map[string]any{
						"type":  "button",
						"style": "primary",
						"color": buttonColor,
						"action": map[string]any{
							"type":  "message",
							"label": "パターン" + p,
							"text":  "パターン" + p,
						},
					},
				},
			},
		})
	}

	return NewFlexMessage("パターンを選択してください", map[string]any{
		"type":     "carousel",
		"contents": bubbles,
	})
}

func resultLine(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

// QuoteResultFlex renders the simple-quote result: the product image,
// every answer, the computed totals, and the consult and web order
// buttons.
func QuoteResultFlex(baseURL string, result *models.QuoteResult, answers map[string]string) Message {
	backName := answers[models.FieldBackName]
	if backName == "" {
		backName = "なし"
	}

	contents := []any{
		map[string]any{"type": "text", "text": "✅ 概算見積", "weight": "bold", "size": "lg"},
		resultLine(fmt.Sprintf("使用日: %s（%s）", answers[models.FieldUsageDate], result.DiscountType)),
		resultLine("商品: " + result.Item),
		resultLine("枚数: " + result.QuantityLabel),
		resultLine("プリント位置: " + answers[models.FieldPrintPosition]),
		resultLine("色数: " + answers[models.FieldColorCount]),
		resultLine("背ネーム・番号: " + backName),
		map[string]any{"type": "separator"},
		map[string]any{"type": "text", "text": "【合計金額】¥" + utils.FormatYen(result.TotalPrice), "weight": "bold"},
		resultLine("【1枚あたり】¥" + utils.FormatYen(result.UnitPrice)),
		map[string]any{"type": "separator"},
		map[string]any{"type": "text", "text": "※上記は概算の簡易見積です。\nより正確な金額をご希望の方は、下記からデザイン相談へお進みください。", "wrap": true, "size": "sm"},
	}

	bubble := map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"spacing":  "md",
			"contents": contents,
		},
		"footer": map[string]any{
			"type":    "box",
			"layout":  "vertical",
			"spacing": "sm",
			"contents": []any{
				postbackButton("デザイン相談", PostbackConsultDesign, "primary"),
				postbackButton("個別相談", PostbackConsultPersonal, "secondary"),
				postbackButton("WEBフォームから注文", PostbackWebOrder, "secondary"),
			},
		},
	}

	if slug := models.ProductImageSlug(result.Item); slug != "" {
		bubble["hero"] = map[string]any{
			"type":        "image",
			"url":         imageURL(baseURL, slug+".png"),
			"size":        "full",
			"aspectMode":  "cover",
			"aspectRatio": "1:1",
		}
	}

	return NewFlexMessage(result.Item+"の見積結果", bubble)
}

// PatternResultFlex renders the pattern-quote result with the pattern
// preview as hero image.
func PatternResultFlex(baseURL string, result *models.QuoteResult, answers map[string]string) Message {
	patternRaw := answers[models.FieldPattern]
	letter := strings.TrimSpace(strings.TrimPrefix(patternRaw, "パターン"))

	contents := []any{
		map[string]any{"type": "text", "text": "✅ 概算見積", "weight": "bold", "size": "lg"},
		resultLine("属性: " + answers[models.FieldUserType]),
		resultLine(fmt.Sprintf("使用日: %s（%s）", answers[models.FieldUsageDate], result.DiscountType)),
		resultLine("商品: " + result.Item),
		resultLine("パターン: " + patternRaw),
		resultLine("枚数: " + result.QuantityLabel),
		map[string]any{"type": "separator"},
		map[string]any{"type": "text", "text": "【合計金額】¥" + utils.FormatYen(result.TotalPrice), "weight": "bold"},
		resultLine("【1枚あたり】¥" + utils.FormatYen(result.UnitPrice)),
		map[string]any{"type": "separator"},
		map[string]any{"type": "text", "text": "※上記は色数1色・背ネームなしの簡易見積です。\nより正確な金額をご希望の方は、下記からデザイン相談へお進みください。", "wrap": true, "size": "sm"},
	}

	bubble := map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"spacing":  "md",
			"contents": contents,
		},
		"footer": map[string]any{
			"type":    "box",
			"layout":  "vertical",
			"spacing": "sm",
			"contents": []any{
				postbackButton("デザイン相談", PostbackConsultDesign, "primary"),
				postbackButton("個別相談", PostbackConsultPersonal, "secondary"),
			},
		},
	}

	if slug := models.ProductImageSlug(result.Item); slug != "" && letter != "" {
		bubble["hero"] = map[string]any{
			"type":        "image",
			"url":         imageURL(baseURL, fmt.Sprintf("%s_%s.png", slug, letter)),
			"size":        "full",
			"aspectMode":  "cover",
			"aspectRatio": "1:1",
		}
	}

	return NewFlexMessage(result.Item+"の見積結果", bubble)
}

// InquiryCarousel renders the two-card contact carousel: FAQ link and
// the staffed chat trigger.
func InquiryCarousel(baseURL string) Message {
	return NewFlexMessage("お問い合わせ情報", map[string]any{
		"type": "carousel",
		"contents": []any{
			map[string]any{
				"type": "bubble",
				"hero": map[string]any{
					"type":        "image",
					"url":         imageURL(baseURL, "IMG_5765.PNG"),
					"size":        "full",
					"aspectRatio": "501:556",
					"aspectMode":  "cover",
					"action": map[string]any{
						"type": "uri",
						"uri":  "https://graffitees.jp/faq/",
					},
				},
			},
			map[string]any{
				"type": "bubble",
				"hero": map[string]any{
					"type":        "image",
					"url":         imageURL(baseURL, "IMG_5766.PNG"),
					"size":        "full",
					"aspectRatio": "501:556",
					"aspectMode":  "cover",
					"action": map[string]any{
						"type": "message",
						"text": "#有人チャット",
					},
				},
			},
		},
	})
}

// OrderConfirmFlex renders the order summary with confirm and hold
// buttons carrying the order number in their postback data.
func OrderConfirmFlex(orderNo, summary string) Message {
	return NewFlexMessage("ご注文内容の確認", map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":    "box",
			"layout":  "vertical",
			"spacing": "md",
			"contents": []any{
				map[string]any{"type": "text", "text": summary, "wrap": true, "size": "sm", "color": "#000000"},
			},
		},
		"footer": map[string]any{
			"type":    "box",
			"layout":  "vertical",
			"spacing": "sm",
			"contents": []any{
				postbackButton("注文確定", PostbackConfirmOrderPrefix+orderNo, "primary"),
				postbackButton("今は注文しない", PostbackCancelOrderPrefix+orderNo, "secondary"),
			},
		},
	})
}

// WebOrderFormFlex renders the link bubble that opens the web order
// form.
func WebOrderFormFlex(formURL string) Message {
	return NewFlexMessage("WEBフォーム", map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":       "box",
			"layout":     "vertical",
			"paddingAll": "16px",
			"spacing":    "sm",
			"contents": []any{
				map[string]any{"type": "text", "text": "WEBフォームでの注文を開く", "weight": "bold", "size": "lg", "align": "center", "wrap": true, "color": "#000000"},
				map[string]any{
					"type":   "button",
					"style":  "primary",
					"color":  buttonColor,
					"height": "sm",
					"action": map[string]any{
						"type":  "uri",
						"label": "開く",
						"uri":   formURL,
					},
				},
			},
		},
	})
}
