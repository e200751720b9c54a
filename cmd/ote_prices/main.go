// Fetches tomorrow's day-ahead prices from OTE and prints them, handy
// for checking the market feed without touching the database.
package main

import (
	"context"
	"fmt"

	"github.com/mkadlec/homewatt-go/ote"
)

func main() {
	prices, err := ote.New().GetEnergyPrices(context.Background())
	if err != nil {
		panic(err)
	}

	for _, p := range prices {
		fmt.Printf("Date: %s, Hour: %02d, Price: %.2f EUR/MWh, Quantity: %.1f MWh\n",
			p.Hour.Date, p.Hour.Hour, p.Price, p.Quantity)
	}
}
