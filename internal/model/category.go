package model

type Category struct {
	ID   int64  `json:"id_category" db:"id_category"`
	Name string `json:"name" db:"name"`
}
