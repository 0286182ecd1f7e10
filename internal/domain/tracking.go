package domain

import "strings"

type PageType string

const (
	PageStart         PageType = "startpage"
	PageCategory      PageType = "category"
	PageProductDetail PageType = "productdetail"
	PageCart          PageType = "cart"
)

type PageView struct {
	PageType   PageType
	ProductIDs []ProductID
	CategoryID string
}

func (v PageView) JoinedProductIDs() string {
	ids := make([]string, len(v.ProductIDs))
	for i, id := range v.ProductIDs {
		ids[i] = id.String()
	}
	return strings.Join(ids, ",")
}
