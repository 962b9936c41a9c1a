package storage

import "database/sql"

type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    string
}

type Category struct {
	ID     int64
	UserID int64
	Name   string
	Kind   string
}

type Transaction struct {
	ID           int64
	UserID       int64
	Kind         string
	CategoryID   sql.NullInt64
	AmountCents  int64
	Date         string
	Note         string
	Receipt      string
	CreatedAt    string
	CategoryName sql.NullString
	CategoryKind sql.NullString
}

type Budget struct {
	ID           int64
	UserID       int64
	CategoryID   int64
	AmountCents  int64
	Month        string
	CategoryName sql.NullString
}
