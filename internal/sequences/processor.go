package sequences

import (
	"context"

	apperrors "prospect-composer/internal/common/errors"
)

// Process sends every email that has come due across all active sequences.
// A failure for one lead is recorded in the result and does not stop the
// run; only failing to list the active sequences is returned as an error.
func (s *Service) Process(ctx context.Context) (*Result, error) {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list active sequences", err)
	}
	s.logger.Info("Processing email sequences", map[string]interface{}{"active": len(active)})

	result := &Result{Errors: []ResultError{}}
	for _, seq := range active {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalProcessed++
		if err := s.processOne(ctx, seq, result); err != nil {
			result.Errors = append(result.Errors, ResultError{LeadID: seq.LeadID, Error: err.Error()})
		}
	}

	s.logger.Info("Email sequence processing complete", map[string]interface{}{
		"processed": result.TotalProcessed,
		"sent":      result.EmailsSent,
		"completed": result.CompletedSequences,
		"errors":    len(result.Errors),
	})
	return result, nil
}

func (s *Service) processOne(ctx context.Context, seq *Sequence, result *Result) error {
	if seq.RepliedAt != nil {
		return nil
	}

	day, due := seq.NextEmailDay(s.now())
	if !due {
		if seq.AllSent() {
			s.complete(seq)
			if err := s.save(ctx, seq, "complete sequence"); err != nil {
				return err
			}
			result.CompletedSequences++
		}
		return nil
	}

	lead, err := s.leads.GetLead(ctx, seq.LeadID)
	if err != nil {
		return err
	}
	id, err := s.sender.Send(ctx, lead, seq.Type, day)
	if err != nil {
		s.logger.Error("Sequence email failed", map[string]interface{}{
			"leadId": seq.LeadID,
			"day":    day,
			"error":  err.Error(),
		})
		result.Errors = append(result.Errors, ResultError{LeadID: seq.LeadID, Email: lead.Email, Error: err.Error()})
		return nil
	}
	if err := s.markSent(ctx, seq, day, id); err != nil {
		return err
	}
	result.EmailsSent++
	if day == FinalDay {
		result.CompletedSequences++
	}
	return nil
}
