package mapping

import (
	"github.com/SscSPs/khata_backend/internal/core/domain"
	"github.com/SscSPs/khata_backend/internal/models"
)

// ToModelKhata converts a domain KhataEntry to a model Khata row
func ToModelKhata(d domain.KhataEntry) models.Khata {
	return models.Khata{
		ID:              d.EntryID,
		ShopID:          d.ShopID,
		Balance:         d.Delta,
		OrderID:         d.OrderID,
		TransactionDate: d.TransactionDate,
		UserUID:         d.UserID,
	}
}

// ToDomainKhata converts a model Khata row to a domain KhataEntry
func ToDomainKhata(m models.Khata) domain.KhataEntry {
	return domain.KhataEntry{
		EntryID:         m.ID,
		ShopID:          m.ShopID,
		Delta:           m.Balance,
		OrderID:         m.OrderID,
		TransactionDate: m.TransactionDate,
		UserID:          m.UserUID,
	}
}

// ToModelCompensationFailure converts a domain CompensationFailure
func ToModelCompensationFailure(d domain.CompensationFailure) models.CompensationFailure {
	return models.CompensationFailure{
		ID:         d.FailureID,
		AttemptID:  d.AttemptID,
		Step:       d.Step,
		RecordID:   d.RecordID,
		Error:      d.Error,
		Cause:      d.Cause,
		UserUID:    d.UserID,
		OccurredAt: d.OccurredAt,
	}
}

// ToDomainCompensationFailure converts a model CompensationFailure
func ToDomainCompensationFailure(m models.CompensationFailure) domain.CompensationFailure {
	return domain.CompensationFailure{
		FailureID:  m.ID,
		AttemptID:  m.AttemptID,
		Step:       m.Step,
		RecordID:   m.RecordID,
		Error:      m.Error,
		Cause:      m.Cause,
		UserID:     m.UserUID,
		OccurredAt: m.OccurredAt,
	}
}
