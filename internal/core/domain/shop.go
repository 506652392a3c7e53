package domain

// Shop is a customer shop that buys on credit. Shops are managed elsewhere;
// the order workflow only reads them.
type Shop struct {
	ShopID    string `json:"shopID"`
	Name      string `json:"name"`
	OwnerName string `json:"ownerName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	UserID    string `json:"userID"` // owning tenant
}
