package model

import (
	"strings"
	"time"
)

// InvestorApplication is the InvestorApplication document, one per user.
// It gates investing and carries the investor subscription.
type InvestorApplication struct {
	ID                  string    `bson:"_id"                           json:"id"`
	UserID              string    `bson:"userId"                        json:"userId"`
	FirstName           string    `bson:"firstName"                     json:"firstName"`
	SecondName          string    `bson:"secondName"                    json:"secondName"`
	Email               string    `bson:"email"                         json:"email"`
	Phone               string    `bson:"phone"                         json:"phone"`
	Country             string    `bson:"country"                       json:"country"`
	Company             string    `bson:"company,omitempty"             json:"company,omitempty"`
	Website             string    `bson:"website,omitempty"             json:"website,omitempty"`
	Industry            string    `bson:"industry,omitempty"            json:"industry,omitempty"`
	IndustryToInvest    []string  `bson:"industryToInvest"              json:"industryToInvest"`
	Level               []string  `bson:"level"                         json:"level"`
	Amount              []string  `bson:"amount"                        json:"amount"`
	Age                 int       `bson:"age"                           json:"age"`
	Field               string    `bson:"field"                         json:"field"`
	WorkTitle           string    `bson:"workTitle"                     json:"workTitle"`
	Referral            string    `bson:"referral"                      json:"referral"`
	Details             string    `bson:"details,omitempty"             json:"details,omitempty"`
	SourceOfFundsURL    string    `bson:"sourceOfFundsUrl,omitempty"    json:"sourceOfFundsUrl,omitempty"`
	ProofOfResidenceURL string    `bson:"proofOfResidenceUrl,omitempty" json:"proofOfResidenceUrl,omitempty"`
	Approved            bool      `bson:"approved"                      json:"approved"`
	Verified            bool      `bson:"verified"                      json:"verified"`
	SubscriptionExpiry  time.Time `bson:"subscriptionExpiry"            json:"subscriptionExpiry"`
	CreatedAt           time.Time `bson:"createdAt"                     json:"createdAt"`
	UpdatedAt           time.Time `bson:"updatedAt"                     json:"updatedAt"`
}

// FullName joins first and second name.
func (a *InvestorApplication) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.SecondName)
}

// InvesteeApplication is the InvesteeApplication document, one per user.
// A user needs one before they can publish a listing.
type InvesteeApplication struct {
	ID                  string    `bson:"_id"                 json:"id"`
	UserID              string    `bson:"userId"              json:"userId"`
	FirstName           string    `bson:"firstName"           json:"firstName"`
	SecondName          string    `bson:"secondName"          json:"secondName"`
	Email               string    `bson:"email"               json:"email"`
	Phone               string    `bson:"phone"               json:"phone"`
	Country             string    `bson:"country"             json:"country"`
	VentureName         string    `bson:"ventureName"         json:"ventureName"`
	Website             string    `bson:"website"             json:"website"`
	Industry            string    `bson:"industry"            json:"industry"`
	BusinessModel       string    `bson:"businessModel"       json:"businessModel"`
	Level               string    `bson:"level"               json:"level"`
	CompanySolution     string    `bson:"companySolution"     json:"companySolution"`
	AfricanLed          string    `bson:"africanLed"          json:"africanLed"`
	AfricanPercentage   float64   `bson:"africanPercentage"   json:"africanPercentage"`
	FemaleFounder       string    `bson:"femaleFounder"       json:"femaleFounder"`
	FemalePercentage    float64   `bson:"femalePercentage"    json:"femalePercentage"`
	CountryHeadquarters string    `bson:"countryHeadquarters" json:"countryHeadquarters"`
	City                string    `bson:"city"                json:"city"`
	Date                string    `bson:"date"                json:"date"` // founding date, YYYY-MM-DD
	Lifecycle           string    `bson:"lifecycle"           json:"lifecycle"`
	MakeMoney           string    `bson:"makeMoney"           json:"makeMoney"`
	GeneratingRevenue   string    `bson:"generatingRevenue"   json:"generatingRevenue"`
	AmountRaising       float64   `bson:"amountRaising"       json:"amountRaising"`
	MonthsRunway        float64   `bson:"monthsRunway"        json:"monthsRunway"`
	ExternalFunding     string    `bson:"externalFunding"     json:"externalFunding"`
	SelectedChallenges  []string  `bson:"selectedChallenges"  json:"selectedChallenges"`
	DocumentURL         string    `bson:"documentUrl"         json:"documentUrl"`
	RelevantDocuments   string    `bson:"relevantDocuments"   json:"relevantDocuments"`
	Referral            string    `bson:"referral"            json:"referral"`
	Details             string    `bson:"details"             json:"details"`
	Mailing             string    `bson:"mailing"             json:"mailing"`
	Approved            bool      `bson:"approved"            json:"approved"`
	Verified            bool      `bson:"verified"            json:"verified"`
	CreatedAt           time.Time `bson:"createdAt"           json:"createdAt"`
	UpdatedAt           time.Time `bson:"updatedAt"           json:"updatedAt"`
}

// FullName joins first and second name.
func (a *InvesteeApplication) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.SecondName)
}

// KYC is the KYC document keyed by user id.
type KYC struct {
	ID              string    `bson:"_id"             json:"id"`
	UserID          string    `bson:"userId"          json:"userId"`
	IDImageURL      string    `bson:"idImageUrl"      json:"idImageUrl"`
	ProfileImageURL string    `bson:"profileImageUrl" json:"profileImageUrl"`
	Approved        bool      `bson:"approved"        json:"approved"`
	SubmittedAt     time.Time `bson:"submittedAt"     json:"submittedAt"`
}

// KYCStatus values returned to the UI.
const (
	KYCStatusMissing  = "not_submitted"
	KYCStatusPending  = "pending"
	KYCStatusApproved = "approved"
)
