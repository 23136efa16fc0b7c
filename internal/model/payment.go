package model

import "time"

// Payment flows. Each flow has its own callback route and is stamped into
// the gateway metadata under "flow".
const (
	FlowMarketplace  = "marketplace"
	FlowSpace        = "collaborative_space"
	FlowService      = "advisory_service"
	FlowSubscription = "subscription"
	FlowGeneric      = "generic"
)

// Subscription plans.
const (
	PlanInvestor = "investor"
	PlanListing  = "listing"
)

// PaymentRecord is a PaystackPayments document keyed by gateway reference.
// Writing it is the idempotency point of every callback.
type PaymentRecord struct {
	Reference      string  `bson:"_id"            json:"refId"`
	Flow           string  `bson:"flow"           json:"flow"`
	UserID         string  `bson:"userId"         json:"userId"`
	TargetID       string  `bson:"targetId"       json:"targetId"` // listing, booking or plan
	Amount         float64 `bson:"amount"         json:"amount"`   // major units
	Currency       string  `bson:"currency"       json:"currency"`
	CustomerEmail  string  `bson:"customerEmail"  json:"customerEmail"`
	CustomerName   string  `bson:"customerName"   json:"customerName"`
	PaymentDetails string  `bson:"paymentDetails" json:"paymentDetails"`
	FailReason     string  `bson:"failReason"     json:"failReason"`
	Approved       bool    `bson:"approved"       json:"approved"`
	// Applied is set once the flow's own document change went through.
	Applied   bool      `bson:"applied"        json:"applied"`
	CreatedAt time.Time `bson:"createdAt"      json:"createdAt"`
}

// Subscription is the Subscriptions document keyed by user id.
type Subscription struct {
	ID         string    `bson:"_id"        json:"id"`
	UserID     string    `bson:"userId"     json:"userId"`
	Plan       string    `bson:"plan"       json:"plan"`
	ExpiryDate time.Time `bson:"expiryDate" json:"expiryDate"`
	UpdatedAt  time.Time `bson:"updatedAt"  json:"updatedAt"`
}

// Job is a Careers document.
type Job struct {
	ID               string    `bson:"_id"              json:"id"`
	UserID           string    `bson:"userId"           json:"userId"`
	Company          string    `bson:"company"          json:"company"`
	Title            string    `bson:"title"            json:"title"`
	Salary           string    `bson:"salary"           json:"salary"`
	Location         string    `bson:"location"         json:"location"`
	Level            string    `bson:"level"            json:"level"`
	Website          string    `bson:"website"          json:"website"`
	AboutUs          string    `bson:"aboutUs"          json:"aboutUs"`
	RoleOverview     string    `bson:"roleOverview"     json:"roleOverview"`
	Responsibilities string    `bson:"responsibilities" json:"responsibilities"`
	Requirements     string    `bson:"requirements"     json:"requirements"`
	FullTime         bool      `bson:"fullTime"         json:"fullTime"`
	JobType          string    `bson:"jobType"          json:"jobType"`
	DatePosted       time.Time `bson:"datePosted"       json:"datePosted"`
}
