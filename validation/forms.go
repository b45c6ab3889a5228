package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormType identifies a verification form variant.
type FormType string

const (
	FormResidence FormType = "RESIDENCE"
	FormOffice    FormType = "OFFICE"
	FormBusiness  FormType = "BUSINESS"
)

// Final status values shared by all form variants.
const (
	StatusPositive    = "Positive"
	StatusShifted     = "Shifted"
	StatusNSP         = "NSP"
	StatusERT         = "ERT"
	StatusUntraceable = "Untraceable"
	StatusHold        = "Hold"
)

// Field names used by the verification forms. They match the JSON keys the
// mobile app sends.
const (
	FieldAddressLocatable = "addressLocatable"
	FieldHouseStatus      = "houseStatus"
	FieldMetPersonStatus  = "metPersonStatus"
	FieldMetPersonName    = "metPersonName"
	FieldMetPersonRel     = "metPersonRelation"
	FieldLocalityType     = "localityType"
	FieldLandmark         = "landmark"
	FieldOfficeStatus     = "officeStatus"
	FieldDesignation      = "designation"
	FieldWorkingPeriod    = "workingPeriod"
	FieldTpcName          = "tpcName"
	FieldTpcConfirmation  = "tpcConfirmation"
	FieldBusinessStatus   = "businessStatus"
	FieldNatureOfBusiness = "natureOfBusiness"
	FieldOwnershipType    = "ownershipType"
	FieldDeclaredTurnover = "declaredTurnover"
	FieldFinalStatus      = "finalStatus"
	FieldHoldReason       = "holdReason"
	FieldRemarks          = "remarks"
)

// MetPersonAvailable is the metPersonStatus value meaning the agent spoke to
// someone at the address.
const MetPersonAvailable = "Available"

// OfficeClosed is the officeStatus value requiring a third-party confirmation.
const OfficeClosed = "Closed"

var residenceRules = MustBuild(NewBuilder(2,
	FieldAddressLocatable, FieldHouseStatus, FieldMetPersonStatus,
	FieldLocalityType, FieldFinalStatus).
	Fields(FieldAddressLocatable, FieldHouseStatus, FieldMetPersonStatus,
		FieldMetPersonName, FieldMetPersonRel, FieldLocalityType, FieldLandmark,
		FieldFinalStatus, FieldHoldReason, FieldRemarks).
	RequireWhen(FieldMetPersonStatus, MetPersonAvailable, FieldMetPersonName, FieldMetPersonRel).
	RequireText(FieldFinalStatus, StatusHold, FieldHoldReason).
	RequireTextUnless(FieldFinalStatus, StatusPositive, FieldRemarks))

var officeRules = MustBuild(NewBuilder(2,
	FieldOfficeStatus, FieldDesignation, FieldWorkingPeriod, FieldFinalStatus).
	Fields(FieldOfficeStatus, FieldDesignation, FieldWorkingPeriod,
		FieldTpcName, FieldTpcConfirmation, FieldFinalStatus,
		FieldHoldReason, FieldRemarks).
	RequireWhen(FieldOfficeStatus, OfficeClosed, FieldTpcName, FieldTpcConfirmation).
	RequireText(FieldFinalStatus, StatusHold, FieldHoldReason).
	RequireTextUnless(FieldFinalStatus, StatusPositive, FieldRemarks))

var businessRules = MustBuild(NewBuilder(3,
	FieldBusinessStatus, FieldNatureOfBusiness, FieldOwnershipType, FieldFinalStatus).
	Fields(FieldBusinessStatus, FieldNatureOfBusiness, FieldOwnershipType,
		FieldDeclaredTurnover, FieldFinalStatus, FieldHoldReason, FieldRemarks).
	RequireText(FieldFinalStatus, StatusHold, FieldHoldReason).
	RequireTextUnless(FieldFinalStatus, StatusPositive, FieldRemarks).
	Custom(func(rec Record) bool {
		return positiveAmount(rec, FieldDeclaredTurnover)
	}))

// positiveAmount reports whether the record holds a parseable, strictly
// positive decimal amount in the given field. Turnover is money; it is parsed
// with decimal rather than a float.
func positiveAmount(rec Record, field string) bool {
	s, ok := rec[field].(string)
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	return err == nil && d.IsPositive()
}

// ForForm returns the rule set for a form variant.
func ForForm(ft FormType) (*RuleSet, bool) {
	switch ft {
	case FormResidence:
		return residenceRules, true
	case FormOffice:
		return officeRules, true
	case FormBusiness:
		return businessRules, true
	}
	return nil, false
}
