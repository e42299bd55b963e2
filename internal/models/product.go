package models

// ProductSummary is one entry of a site search result list.
type ProductSummary struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Cover string `json:"cover"`
	Link  string `json:"link"`
	ID    string `json:"id"`
}

// ProductDetail is a single scraped product. Price is empty when unknown.
type ProductDetail struct {
	Title string `json:"title"`
	Price string `json:"price,omitempty"`
	Cover string `json:"cover"`
	Link  string `json:"link"`
}

// WishlistItem is an entry returned by the wishlist backend.
type WishlistItem struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Price string `json:"price,omitempty"`
	Cover string `json:"cover"`
	Link  string `json:"link,omitempty"`
}

// Envelope is the generic JSON body returned by the proxy.
type Envelope struct {
	Message any  `json:"message"`
	Success bool `json:"success"`
}

// ProductResponse flattens a ProductDetail next to the success flag.
type ProductResponse struct {
	ProductDetail
	Success bool `json:"success"`
}

func NewProductResponse(p *ProductDetail) ProductResponse {
	return ProductResponse{ProductDetail: *p, Success: true}
}

func (p *ProductDetail) Validate() []string {
	var errors []string

	if p.Title == "" {
		errors = append(errors, "Title is required")
	}

	if p.Cover == "" {
		errors = append(errors, "Cover is required")
	}

	return errors
}
