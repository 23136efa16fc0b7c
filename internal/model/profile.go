package model

import "time"

// Profile is the business-verification document keyed by user id.
// Sections maps a section name (see ProfileSchema) to its answers.
type Profile struct {
	ID               string                    `bson:"_id"              json:"id"`
	UserID           string                    `bson:"userId"           json:"userId"`
	Sections         map[string]map[string]any `bson:"sections"         json:"sections"`
	Completion       float64                   `bson:"completion"       json:"completion"`
	BusinessVerified bool                      `bson:"businessVerified" json:"businessVerified"`
	UpdatedAt        time.Time                 `bson:"updatedAt"        json:"updatedAt"`
}

// ProfileField describes one answer in a profile section. Yes/no answers
// always hold a value, so they always count towards completion.
type ProfileField struct {
	Key   string
	YesNo bool
}

// ProfileSchema lists every section and its fields, in display order.
var ProfileSchema = []struct {
	Section string
	Fields  []ProfileField
}{
	{"GeneralInfo", []ProfileField{
		{Key: "generalCompany"}, {Key: "generalNames"}, {Key: "generalId"},
		{Key: "generalIncorporation"}, {Key: "generalOwner"}, {Key: "generalCountry"},
		{Key: "resolution", YesNo: true}, {Key: "shareAgreement", YesNo: true},
		{Key: "capitalChanges", YesNo: true}, {Key: "securityIssued", YesNo: true},
	}},
	{"BusinessInfo", []ProfileField{
		{Key: "businessDescription"}, {Key: "businessOther"},
		{Key: "shares", YesNo: true}, {Key: "tradeAssociation", YesNo: true},
		{Key: "businessCompetition"},
		{Key: "contractRestrict", YesNo: true}, {Key: "investigations", YesNo: true},
		{Key: "jurisdiction", YesNo: true}, {Key: "contract", YesNo: true},
		{Key: "businessCredit"}, {Key: "businessAgreements"},
		{Key: "licences", YesNo: true}, {Key: "arrangementsControl", YesNo: true},
		{Key: "arrangementsMonetary", YesNo: true}, {Key: "contractNegotiations", YesNo: true},
		{Key: "agreements", YesNo: true}, {Key: "customersRevenue", YesNo: true},
		{Key: "suppliers", YesNo: true}, {Key: "materialContracts", YesNo: true},
	}},
	{"AccountingInfo", []ProfileField{
		{Key: "accountingStandard", YesNo: true}, {Key: "accountingStandardForm"},
		{Key: "accountingCompany"}, {Key: "accountingNames"},
		{Key: "debtSecurities", YesNo: true}, {Key: "loans", YesNo: true},
		{Key: "financial", YesNo: true}, {Key: "grants", YesNo: true},
		{Key: "creditSales", YesNo: true}, {Key: "guarantees", YesNo: true},
		{Key: "liabilities", YesNo: true}, {Key: "reorganizationNext", YesNo: true},
		{Key: "reorganizationPast", YesNo: true}, {Key: "contractShares", YesNo: true},
	}},
	{"AssetInfo", []ProfileField{
		{Key: "assetCompany"}, {Key: "property", YesNo: true},
	}},
	{"IntellectualProperty", []ProfileField{
		{Key: "patents", YesNo: true}, {Key: "intellectualPeople"},
		{Key: "intellectualDecisions"}, {Key: "dispute", YesNo: true},
	}},
	{"EmploymentPolicy", []ProfileField{
		{Key: "disciplinaryAction", YesNo: true}, {Key: "tradeUnion", YesNo: true},
		{Key: "liability", YesNo: true}, {Key: "directorsBankruptcy", YesNo: true},
		{Key: "materialInterest", YesNo: true}, {Key: "interestCompetition", YesNo: true},
	}},
	{"ComplianceESG", []ProfileField{
		{Key: "complianceCircumstances"}, {Key: "complianceOfficer"},
		{Key: "disputes", YesNo: true}, {Key: "complianceSituations"},
		{Key: "complianceWithdrawals"}, {Key: "complianceInsurance"},
		{Key: "personalData", YesNo: true}, {Key: "dataMinors", YesNo: true},
		{Key: "dataProtectionAct", YesNo: true}, {Key: "thirdPartyProcess", YesNo: true},
		{Key: "copyrightSoftware", YesNo: true}, {Key: "complianceEvents"},
		{Key: "complianceDisputes"}, {Key: "complianceDomain"},
		{Key: "complianceHealth"}, {Key: "communicationSafety", YesNo: true},
		{Key: "noticeEnvironment", YesNo: true},
	}},
}
