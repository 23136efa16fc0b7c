package model

import "time"

// Listing is a Marketplace document. Its id is the creator's user id, so a
// user owns at most one listing.
type Listing struct {
	ID                     string            `bson:"_id"                    json:"id"`
	Creator                string            `bson:"creator"                json:"creator"`
	CreatorName            string            `bson:"creatorName"            json:"creatorName"`
	CreatorEmail           string            `bson:"creatorEmail"           json:"creatorEmail"`
	Title                  string            `bson:"title"                  json:"title"`
	Description            string            `bson:"description"            json:"description"`
	Industry               string            `bson:"industry"               json:"industry"`
	CompanyAsk             float64           `bson:"companyAsk"             json:"companyAsk"`
	AmountInvested         float64           `bson:"amountInvested"         json:"amountInvested"`
	NoOfInvestors          int               `bson:"noOfInvestors"          json:"noOfInvestors"`
	Earnings               float64           `bson:"earnings"               json:"earnings"`
	Revenue                float64           `bson:"revenue"                json:"revenue"`
	ImageURLs              []string          `bson:"imageUrl"               json:"imageUrl"`
	PitchDeck              string            `bson:"pitchDeck"              json:"pitchDeck"`
	MoreInfo               map[string]string `bson:"moreInfo"               json:"moreInfo"`
	Investors              []InvestorRequest `bson:"investors"              json:"investors"`
	Reviews                []Review          `bson:"reviews"                json:"reviews"`
	ShowedInterestUsers    []string          `bson:"showedInterestUsers"    json:"showedInterestUsers"`
	ShowedDisinterestUsers []string          `bson:"showedDisinterestUsers" json:"showedDisinterestUsers"`
	SubscriptionExpiry     time.Time         `bson:"subscriptionExpiry"     json:"subscriptionExpiry"`
	Verified               bool              `bson:"verified"               json:"verified"`
	CreatedAt              time.Time         `bson:"createdAt"              json:"createdAt"`
}

// MoreInfoKeys are the free-text sections shown under "More info".
var MoreInfoKeys = []string{
	"Business_type",
	"Exit Strategy",
	"Financial Forecast",
	"Financial Statements",
	"Founder",
	"Location",
	"Marketing and Sales Strategy",
	"Operations and Management",
	"Portfolio Management",
	"Research and Development",
	"Risk Management",
	"Website",
}

// RequestBy returns the investor request made by userID, or nil.
func (l *Listing) RequestBy(userID string) *InvestorRequest {
	for i := range l.Investors {
		if l.Investors[i].InvestorID == userID {
			return &l.Investors[i]
		}
	}
	return nil
}

// ReviewBy returns the review written by userID, or nil.
func (l *Listing) ReviewBy(userID string) *Review {
	for i := range l.Reviews {
		if l.Reviews[i].ReviewerID == userID {
			return &l.Reviews[i]
		}
	}
	return nil
}

// AverageRating is the mean review rating, 0 with no reviews.
func (l *Listing) AverageRating() float64 {
	if len(l.Reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range l.Reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(l.Reviews))
}

// SubscriptionActive reports whether the listing subscription runs past now.
// A listing that never had an expiry set is treated as active.
func (l *Listing) SubscriptionActive(now time.Time) bool {
	return l.SubscriptionExpiry.IsZero() || l.SubscriptionExpiry.After(now)
}

// InvestorRequest is one entry of Listing.Investors.
//
// Lifecycle: requested (Approved=false) -> approved (Approved=true) ->
// paid (InvestmentComplete=true). A rejected request is removed.
type InvestorRequest struct {
	InvestorID         string  `bson:"investorId"         json:"investorId"`
	InvestorName       string  `bson:"investorName"       json:"investorName"`
	InvestorEmail      string  `bson:"investorEmail"      json:"investorEmail"`
	CompanyName        string  `bson:"companyName"        json:"companyName"`
	Country            string  `bson:"country"            json:"country"`
	Age                int     `bson:"age"                json:"age"`
	Equity             float64 `bson:"equity"             json:"equity"`
	InvestmentAmount   float64 `bson:"investmentAmount"   json:"investmentAmount"`
	ExtraOfferings     string  `bson:"extraOfferings"     json:"extraOfferings"`
	Date               string  `bson:"date"               json:"date"` // d-m-Y
	Approved           bool    `bson:"approved"           json:"approved"`
	InvestmentComplete bool    `bson:"investmentComplete" json:"investmentComplete"`
}

// Investment request states.
const (
	InvestmentRequested = "requested"
	InvestmentApproved  = "approved"
	InvestmentPaid      = "paid"
)

// Status names the request's place in its lifecycle.
func (r *InvestorRequest) Status() string {
	switch {
	case r.InvestmentComplete:
		return InvestmentPaid
	case r.Approved:
		return InvestmentApproved
	default:
		return InvestmentRequested
	}
}

// Review is one entry of Listing.Reviews. A reviewer reviews a listing once.
type Review struct {
	ReviewerID string    `bson:"reviewerId" json:"reviewerId"`
	Reviewer   string    `bson:"reviewer"   json:"reviewer"`
	Rating     int       `bson:"rating"     json:"rating"`
	ReviewText string    `bson:"reviewText" json:"reviewText"`
	Date       time.Time `bson:"date"       json:"date"`
}
