package models

// Shop is a row of the shops table.
type Shop struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	UserUID   string `json:"user_uid"`
}
