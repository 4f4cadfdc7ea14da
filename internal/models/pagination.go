package models

// Page is a paginated list response
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Count int `json:"count"`
}

// NormalizePage applies the default page size and caps it at max
func NormalizePage(page, count, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = def
	}
	if count > max {
		count = max
	}
	return page, count
}
