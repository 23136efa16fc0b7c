package model

import "time"

// Booking decisions recorded by a space manager or service provider.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// CollaborativeSpace is a bookable studio or desk. Cost is per month.
type CollaborativeSpace struct {
	ID          string   `bson:"_id"         json:"id"`
	Title       string   `bson:"title"       json:"title"`
	Description string   `bson:"description" json:"description"`
	Address     string   `bson:"address"     json:"address"`
	Cost        float64  `bson:"cost"        json:"cost"`
	Email       string   `bson:"email"       json:"email"` // space owner
	Images      []string `bson:"images"      json:"images"`
}

// SpaceBooking is a CollaborativeSpacePayments document.
type SpaceBooking struct {
	ID              string    `bson:"_id"                json:"id"`
	UserID          string    `bson:"userId"             json:"userId"`
	UserName        string    `bson:"userName"           json:"userName"`
	UserEmail       string    `bson:"userEmail"          json:"userEmail"`
	SpaceID         string    `bson:"spaceId"            json:"spaceId"`
	StudioName      string    `bson:"studioName"         json:"studioName"`
	StartDate       string    `bson:"startDate"          json:"startDate"` // YYYY-MM-DD
	Days            int       `bson:"days"               json:"days"`
	Amount          float64   `bson:"amount"             json:"amount"`
	AdditionalInfo  string    `bson:"additionalInfo"     json:"additionalInfo"`
	ManagerApproval bool      `bson:"managerApproval"    json:"managerApproval"`
	Decision        string    `bson:"decision,omitempty" json:"decision,omitempty"`
	Complete        bool      `bson:"complete"           json:"complete"`
	CreatedAt       time.Time `bson:"createdAt"          json:"createdAt"`
}

// AdvisoryService is an AdvisoryServices document. Its id is the service
// type (for example "Mentorship").
type AdvisoryService struct {
	ID          string     `bson:"_id"         json:"id"`
	Title       string     `bson:"title"       json:"title"`
	Description string     `bson:"description" json:"description"`
	Providers   []Provider `bson:"providers"   json:"providers"`
}

// DefaultProviderPrice applies when a provider has no price set.
const DefaultProviderPrice = 1000

// Provider offers an advisory service. Contact is an email address.
type Provider struct {
	Name        string  `bson:"name"        json:"name"`
	Contact     string  `bson:"contact"     json:"contact"`
	Price       float64 `bson:"price"       json:"price"`
	Description string  `bson:"description" json:"description"`
}

// EffectivePrice is Price, or DefaultProviderPrice when unset.
func (p Provider) EffectivePrice() float64 {
	if p.Price <= 0 {
		return DefaultProviderPrice
	}
	return p.Price
}

// ProviderByName finds a provider of the service.
func (s *AdvisoryService) ProviderByName(name string) (Provider, bool) {
	for _, p := range s.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// ServiceBooking is a ServicePayments document.
type ServiceBooking struct {
	ID                      string    `bson:"_id"                     json:"id"`
	UserID                  string    `bson:"userId"                  json:"userId"`
	UserName                string    `bson:"userName"                json:"userName"`
	UserEmail               string    `bson:"userEmail"               json:"userEmail"`
	ServiceType             string    `bson:"serviceType"             json:"serviceType"`
	ServiceProviderName     string    `bson:"serviceProviderName"     json:"serviceProviderName"`
	Amount                  float64   `bson:"amount"                  json:"amount"`
	AdditionalInfo          string    `bson:"additionalInfo"          json:"additionalInfo"`
	ServiceDate             string    `bson:"serviceDate"             json:"serviceDate"`
	ServiceTime             string    `bson:"serviceTime"             json:"serviceTime"`
	ServiceProviderApproval bool      `bson:"serviceProviderApproval" json:"serviceProviderApproval"`
	Decision                string    `bson:"decision,omitempty"      json:"decision,omitempty"`
	PaymentComplete         bool      `bson:"paymentComplete"         json:"paymentComplete"`
	Complete                bool      `bson:"complete"                json:"complete"`
	CreatedAt               time.Time `bson:"createdAt"               json:"createdAt"`
}
