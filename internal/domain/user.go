package domain

import "github.com/shopspring/decimal"

type User struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname,omitempty"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Addresses Addresses `json:"addresses"`
	Orders    []Order   `json:"orders"`
	Favorites []ID      `json:"favorites"`
}

// FullName is what the order's customer field carries.
func (u User) FullName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}

type PriceAlert struct {
	ID           ID              `json:"id,omitempty"`
	UserID       ID              `json:"userId"`
	Email        string          `json:"email"`
	UserName     string          `json:"userName"`
	ProductID    ID              `json:"productId"`
	ProductName  string          `json:"productName"`
	PriceAtAlert decimal.Decimal `json:"priceAtAlert"`
	Date         string          `json:"date"`
}

// Product is the slice of catalog data the watch-list needs.
type Product struct {
	ID    ID              `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}
