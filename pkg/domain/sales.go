package domain

import "time"

// Sale is one fiscal document issued by a store.
type Sale struct {
	ID             int64     `json:"id"`
	StoreCode      string    `json:"storeCode"`
	OperationCode  string    `json:"operationCode"`
	DocumentNumber string    `json:"documentNumber"`
	Seller         string    `json:"seller,omitempty"`
	Total          float64   `json:"total"`
	IssuedAt       time.Time `json:"issuedAt"`
}

// StoreSales is a per-store row of the dashboard ranking.
type StoreSales struct {
	StoreCode string  `json:"storeCode"`
	StoreName string  `json:"storeName"`
	Total     float64 `json:"total"`
	Count     int64   `json:"count"`
}

// DashboardSummary is the aggregate shown on the landing page.
type DashboardSummary struct {
	SalesTotal     float64      `json:"salesTotal"`
	SalesCount     int64        `json:"salesCount"`
	PurchasesTotal float64      `json:"purchasesTotal"`
	PurchasesCount int64        `json:"purchasesCount"`
	ActiveStores   int64        `json:"activeStores"`
	ActiveUsers    int64        `json:"activeUsers"`
	TopStores      []StoreSales `json:"topStores,omitempty"`
	GeneratedAt    time.Time    `json:"generatedAt"`
}
