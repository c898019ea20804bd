package models

import "time"

// Listing export columns the cleaning pipeline reads or produces.
const (
	ColID            = "id"
	ColName          = "name"
	ColPrice         = "price"
	ColWeeklyPrice   = "weekly_price"
	ColMonthlyPrice  = "monthly_price"
	ColNeighbourhood = "neighbourhood_cleansed"
	ColRoomType      = "room_type"
	ColOccupancyRate = "occupancy_rate"
)

// Calendar export columns.
const (
	ColListingID = "listing_id"
	ColDate      = "date"
	ColAvailable = "available"
	ColBooked    = "booked"
)

// Review export columns.
const (
	ColReviewID = "id"
)

// DateLayout is the date format used by all three exports.
const DateLayout = "2006-01-02"

// Fill-in factors for missing weekly and monthly prices.
const (
	DaysPerWeek   = 7.0
	WeeksPerMonth = 4.34524
)

// CurrencyColumns hold "$1,200.00"-style strings in the listings export.
var CurrencyColumns = []string{
	ColPrice, ColWeeklyPrice, ColMonthlyPrice,
	"security_deposit", "cleaning_fee", "extra_people",
}

// PercentColumns hold "96%"-style strings in the listings export.
var PercentColumns = []string{"host_response_rate", "host_acceptance_rate"}

// FlagColumns hold "t"/"f" values in the listings export.
var FlagColumns = []string{
	"host_is_superhost", "host_has_profile_pic", "host_identity_verified",
	"is_location_exact", "has_availability", "requires_license",
	"instant_bookable", "require_guest_profile_picture",
	"require_guest_phone_verification",
}

// Occupancy summarises one listing's calendar window.
type Occupancy struct {
	ListingID  string
	Days       int
	BookedDays int
	Rate       float64
}

// TimePoint is one value of a date-indexed series.
type TimePoint struct {
	Date  time.Time
	Value float64
}

// GroupStat aggregates a KPI column over one group of rows.
type GroupStat struct {
	Group string
	Count int
	Mean  float64
	Min   float64
	Max   float64
}

// ListingSummary is the slice of a cleaned listing row the report and the
// database care about.
type ListingSummary struct {
	ID            string
	Name          string
	Neighbourhood string
	RoomType      string
	Price         float64
	WeeklyPrice   float64
	MonthlyPrice  float64
	OccupancyRate float64
}

// InsightReport holds the computed analytics over the cleaned dataset.
type InsightReport struct {
	TotalListings           int
	PricedListings          int
	AveragePrice            float64
	MedianPrice             float64
	MinPrice                float64
	MaxPrice                float64
	MostExpensive           *ListingSummary
	CalendarListings        int
	AverageOccupancy        float64
	BusiestListings         []*ListingSummary
	ListingsByNeighbourhood map[string]int
}
