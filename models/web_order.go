package models

// WebOrderColumnKeys fixes the field order of a WebOrderRequests row.
// Form field names, sheet columns and read-back all share this order;
// changing it is a data-contract change for the whole sheet.
var WebOrderColumnKeys = []string{
	// 基本情報
	"timestamp",
	"productName", "productNo", "colorNo", "colorName",
	"size150", "sizeSS", "sizeS", "sizeM",
	"sizeL", "sizeXL", "sizeXXL", "totalQuantity",

	// １ヵ所目
	"printPositionNo1", "nameNumberOption1", "nameNumberPrintType1",
	"singleColor1", "edgeType1",
	"edgeCustomTextColor1", "edgeCustomEdgeColor1", "edgeCustomEdgeColor2_1",
	"fontType1", "fontNumber1",
	"printColorOption1_1", "printColorOption1_2", "printColorOption1_3",
	"fullColorSize1",
	"designCode1", "designSize1", "designSizeX1", "designSizeY1",

	// ２ヵ所目
	"printPositionNo2", "nameNumberOption2", "nameNumberPrintType2",
	"singleColor2", "edgeType2",
	"edgeCustomTextColor2", "edgeCustomEdgeColor2", "edgeCustomEdgeColor2_2",
	"fontType2", "fontNumber2",
	"printColorOption2_1", "printColorOption2_2", "printColorOption2_3",
	"fullColorSize2",
	"designCode2", "designSize2", "designSizeX2", "designSizeY2",

	// ３ヵ所目
	"printPositionNo3", "nameNumberOption3", "nameNumberPrintType3",
	"singleColor3", "edgeType3",
	"edgeCustomTextColor3", "edgeCustomEdgeColor3", "edgeCustomEdgeColor2_3",
	"fontType3", "fontNumber3",
	"printColorOption3_1", "printColorOption3_2", "printColorOption3_3",
	"fullColorSize3",
	"designCode3", "designSize3", "designSizeX3", "designSizeY3",

	// ４ヵ所目
	"printPositionNo4", "nameNumberOption4", "nameNumberPrintType4",
	"singleColor4", "edgeType4",
	"edgeCustomTextColor4", "edgeCustomEdgeColor4", "edgeCustomEdgeColor2_4",
	"fontType4", "fontNumber4",
	"printColorOption4_1", "printColorOption4_2", "printColorOption4_3",
	"fullColorSize4",
	"designCode4", "designSize4", "designSizeX4", "designSizeY4",

	// 発送・連絡先など
	"deliveryDate", "useDate", "applicationDate", "discountOption",
	"schoolName", "lineName", "classGroupName",
	"zipCode", "address1", "address2", "addresseeName", "schoolTel",
	"representativeName", "representativeTel", "representativeEmail",
	"designCheckMethod", "paymentMethod",

	"orderNo", "quote_no", "unitPrice", "totalPrice",
}

// WebOrderRequiredFields are validated eagerly on a final (non-draft)
// submission; a missing one fails the request with the field name.
var WebOrderRequiredFields = []string{
	"productName", "colorName", "sizeM", "deliveryDate",
	"schoolName", "representativeName", "representativeTel",
	"zipCode", "address2", "addresseeName", "discountOption",
	"designCheckMethod", "paymentMethod",
}

// WebOrderValues holds one order form submission keyed by column name.
// Unknown form fields are dropped by the parser; absent columns render
// as empty cells.
type WebOrderValues map[string]string

// Row returns cells ordered by WebOrderColumnKeys, empty string for
// missing keys, so every appended row has the same width.
func (v WebOrderValues) Row() []any {
	row := make([]any, 0, len(WebOrderColumnKeys))
	for _, key := range WebOrderColumnKeys {
		row = append(row, v[key])
	}
	return row
}

// MissingRequired returns the first required field without a value, or
// "" when all are present.
func (v WebOrderValues) MissingRequired() string {
	for _, field := range WebOrderRequiredFields {
		if v[field] == "" {
			return field
		}
	}
	return ""
}

// PositionCount counts declared print positions (printPositionNo1..4).
func (v WebOrderValues) PositionCount() int {
	n := 0
	for _, key := range []string{"printPositionNo1", "printPositionNo2", "printPositionNo3", "printPositionNo4"} {
		if v[key] != "" {
			n++
		}
	}
	return n
}

// WebOrderColumnIndex returns the zero-based column of key, or -1.
func WebOrderColumnIndex(key string) int {
	for i, k := range WebOrderColumnKeys {
		if k == key {
			return i
		}
	}
	return -1
}
