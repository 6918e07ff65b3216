package food

import (
	"errors"
	"time"
)

type Food struct {
	ID            int64     `json:"food_id"`
	Name          string    `json:"name"`
	Calories      float64   `json:"calories"`
	Protein       float64   `json:"protein"`
	Carbohydrates float64   `json:"carbohydrates"`
	Fats          float64   `json:"fats"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FoodInput holds nutrition values per 100 g.
type FoodInput struct {
	Name          string  `json:"name" validate:"required,max=150"`
	Calories      float64 `json:"calories" validate:"gte=0,lte=10000"`
	Protein       float64 `json:"protein" validate:"gte=0,lte=1000"`
	Carbohydrates float64 `json:"carbohydrates" validate:"gte=0,lte=1000"`
	Fats          float64 `json:"fats" validate:"gte=0,lte=1000"`
}

var ErrNotFound = errors.New("food not found")
