package catalog

import (
	"time"

	"github.com/fjod/coffee_cart/internal/domain"
	"github.com/fjod/coffee_cart/internal/geocode"
	"github.com/fjod/coffee_cart/internal/pricing"
	"github.com/fjod/coffee_cart/internal/promotion"
)

const (
	CategoryCoffee = "coffee"
	CategoryTea    = "tea"
	CategoryBlend  = "ice-blended"
)

// Default is the built-in storefront catalog, prices in VND.
func Default() *Catalog {
	c := &Catalog{
		Products: []domain.Product{
			{ID: "phin-sua-da", Name: "Phin Sua Da", BasePrice: 29000, CategoryID: CategoryCoffee, IsAvailable: true},
			{ID: "phin-den-da", Name: "Phin Den Da", BasePrice: 29000, CategoryID: CategoryCoffee, IsAvailable: true},
			{ID: "bac-xiu", Name: "Bac Xiu", BasePrice: 35000, CategoryID: CategoryCoffee, IsAvailable: true},
			{ID: "ca-phe-muoi", Name: "Ca Phe Muoi", BasePrice: 39000, CategoryID: CategoryCoffee, IsAvailable: true},
			{ID: "cold-brew", Name: "Cold Brew Cam Sa", BasePrice: 49000, CategoryID: CategoryCoffee, IsAvailable: false},
			{ID: "tra-dao", Name: "Tra Dao Cam Sa", BasePrice: 45000, CategoryID: CategoryTea, IsAvailable: true},
			{ID: "tra-sen-vang", Name: "Tra Sen Vang", BasePrice: 45000, CategoryID: CategoryTea, IsAvailable: true},
			{ID: "freeze-tra-xanh", Name: "Freeze Tra Xanh", BasePrice: 55000, CategoryID: CategoryBlend, IsAvailable: true},
		},
		Toppings: []domain.Topping{
			{ID: "extra-shot", Name: "Extra espresso shot", Price: 10000},
			{ID: "pearl", Name: "Tran chau trang", Price: 8000},
			{ID: "peach-jelly", Name: "Thach dao", Price: 8000},
			{ID: "cheese-foam", Name: "Kem cheese", Price: 12000},
		},
		SizeDeltas: pricing.DefaultSizeDeltas,
		Branches: []domain.Branch{
			{
				ID:                    "hcm-d1",
				Name:                  "Coffee Cart Le Loi",
				Address:               "86 Le Loi, Ben Thanh, District 1",
				Location:              domain.Coordinate{Lat: 10.7731, Lng: 106.6988},
				DeliveryRadiusKm:      5,
				BaseDeliveryFee:       15000,
				PerKmRate:             5000,
				FreeShippingThreshold: 150000,
				PrepMinutes:           10,
				DeliveryMinutes:       20,
				Hours:                 domain.OpeningHours{Open: domain.NewTimeOfDay(7, 0), Close: domain.NewTimeOfDay(22, 0), Timezone: "Asia/Ho_Chi_Minh"},
				IsActive:              true,
			},
			{
				ID:                    "hcm-d3",
				Name:                  "Coffee Cart Vo Van Tan",
				Address:               "142 Vo Van Tan, District 3",
				Location:              domain.Coordinate{Lat: 10.7756, Lng: 106.6897},
				DeliveryRadiusKm:      4,
				BaseDeliveryFee:       15000,
				PerKmRate:             6000,
				FreeShippingThreshold: 200000,
				PrepMinutes:           12,
				DeliveryMinutes:       25,
				Hours:                 domain.OpeningHours{Open: domain.NewTimeOfDay(6, 30), Close: domain.NewTimeOfDay(1, 0), Timezone: "Asia/Ho_Chi_Minh"},
				IsActive:              true,
			},
			{
				ID:                    "hcm-thao-dien",
				Name:                  "Coffee Cart Thao Dien",
				Address:               "21 Quoc Huong, Thao Dien, Thu Duc",
				Location:              domain.Coordinate{Lat: 10.8030, Lng: 106.7370},
				DeliveryRadiusKm:      6,
				BaseDeliveryFee:       20000,
				PerKmRate:             5000,
				FreeShippingThreshold: 250000,
				PrepMinutes:           10,
				DeliveryMinutes:       30,
				Hours: domain.OpeningHours{
					Open:     domain.NewTimeOfDay(8, 0),
					Close:    domain.NewTimeOfDay(21, 0),
					Days:     []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
					Timezone: "Asia/Ho_Chi_Minh",
				},
				IsActive: true,
			},
			{
				ID:               "hcm-go-vap",
				Name:             "Coffee Cart Go Vap",
				Address:          "590 Quang Trung, Go Vap",
				Location:         domain.Coordinate{Lat: 10.8387, Lng: 106.6663},
				DeliveryRadiusKm: 5,
				BaseDeliveryFee:  15000,
				PerKmRate:        5000,
				PrepMinutes:      10,
				DeliveryMinutes:  25,
				Hours:            domain.OpeningHours{Open: domain.NewTimeOfDay(7, 0), Close: domain.NewTimeOfDay(22, 0), Timezone: "Asia/Ho_Chi_Minh"},
				IsActive:         false,
			},
		},
		Promotions: promotion.DefaultRules,
		Addresses: []geocode.Entry{
			{Match: "ben thanh", Coordinate: domain.Coordinate{Lat: 10.7725, Lng: 106.6980}},
			{Match: "nguyen hue", Coordinate: domain.Coordinate{Lat: 10.7740, Lng: 106.7038}},
			{Match: "vo van tan", Coordinate: domain.Coordinate{Lat: 10.7760, Lng: 106.6880}},
			{Match: "thao dien", Coordinate: domain.Coordinate{Lat: 10.8040, Lng: 106.7350}},
			{Match: "binh thanh", Coordinate: domain.Coordinate{Lat: 10.8106, Lng: 106.7091}},
			{Match: "phu my hung", Coordinate: domain.Coordinate{Lat: 10.7290, Lng: 106.7190}},
			{Match: "cu chi", Coordinate: domain.Coordinate{Lat: 10.9730, Lng: 106.4930}},
		},
	}
	// the seed is always valid
	_ = c.index()
	return c
}
