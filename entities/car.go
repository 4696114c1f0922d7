package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

type FuelType string

const (
	FuelPetrol FuelType = "Petrol"
	FuelDiesel FuelType = "Diesel"
	FuelCNG    FuelType = "CNG"
	FuelLPG    FuelType = "LPG"
	FuelOther  FuelType = "Other"
)

var FuelTypes = []FuelType{FuelPetrol, FuelDiesel, FuelCNG, FuelLPG, FuelOther}

type SellerType string

const (
	SellerDealer     SellerType = "Dealer"
	SellerIndividual SellerType = "Individual"
)

var SellerTypes = []SellerType{SellerDealer, SellerIndividual}

type Transmission string

const (
	TransmissionManual    Transmission = "Manual"
	TransmissionAutomatic Transmission = "Automatic"
)

var Transmissions = []Transmission{TransmissionManual, TransmissionAutomatic}

const (
	MaxOwners    = 3
	UnknownBrand = "Unknown"
)

// CarAttributes is one validated set of user inputs. Built fresh per action
// by the collector and never modified afterwards.
type CarAttributes struct {
	PresentPrice decimal.Decimal `json:"present_price"` // lakhs
	KmsDriven    int             `json:"kms_driven"`
	Year         int             `json:"year"`
	FuelType     FuelType        `json:"fuel_type"`
	SellerType   SellerType      `json:"seller_type"`
	Transmission Transmission    `json:"transmission"`
	Owner        int             `json:"owner"` // prior owners, 0..3
	Brand        string          `json:"brand"`
}

// IsDiesel compares case-insensitively so records built outside the
// collector behave the same.
func (c CarAttributes) IsDiesel() bool {
	return strings.EqualFold(string(c.FuelType), string(FuelDiesel))
}

func (c CarAttributes) IsFirstOwner() bool { return c.Owner == 0 }

// ParseFuelType matches case-insensitively and returns the canonical spelling.
func ParseFuelType(s string) (FuelType, bool) {
	for _, f := range FuelTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(f)) {
			return f, true
		}
	}
	return "", false
}

func ParseSellerType(s string) (SellerType, bool) {
	for _, v := range SellerTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, true
		}
	}
	return "", false
}

func ParseTransmission(s string) (Transmission, bool) {
	for _, v := range Transmissions {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, true
		}
	}
	return "", false
}
