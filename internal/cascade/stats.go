package cascade

import "context"

// Stats counts non-deleted vendor products by how they left pending.
type Stats struct {
	AutoValidated   int64 `json:"auto_validated"`
	ManualValidated int64 `json:"manual_validated"`
	Pending         int64 `json:"pending"`
	TotalValidated  int64 `json:"total_validated"`
}

func (s *service) GetAutoValidationStats(ctx context.Context) (*Stats, error) {
	row, err := s.repo.CountStats(ctx)
	if err != nil {
		return nil, wrapStore(err, "count validation stats")
	}
	return &Stats{
		AutoValidated:   row.AutoValidated,
		ManualValidated: row.ManualValidated,
		Pending:         row.Pending,
		TotalValidated:  row.AutoValidated + row.ManualValidated,
	}, nil
}
