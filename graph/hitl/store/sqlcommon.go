package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Both SQLite and MySQL accept '?' placeholders, so sqlPendingStore's
// queries below are shared verbatim; only the DDL (below) and driver/DSN
// (in sqlite.go / mysql.go) differ.

var sharedDDLSQLite = []string{
	`CREATE TABLE IF NOT EXISTS hitl_approvals (
		run_id TEXT NOT NULL, node_name TEXT NOT NULL,
		state_json TEXT NOT NULL, message TEXT NOT NULL, status TEXT NOT NULL,
		requested_at DATETIME NOT NULL, resolved_at DATETIME,
		PRIMARY KEY (run_id, node_name))`,
	`CREATE TABLE IF NOT EXISTS hitl_decisions (
		run_id TEXT NOT NULL, node_name TEXT NOT NULL,
		state_json TEXT NOT NULL, question TEXT NOT NULL, options_json TEXT NOT NULL,
		chosen_option TEXT NOT NULL DEFAULT '', status TEXT NOT NULL,
		requested_at DATETIME NOT NULL, resolved_at DATETIME,
		PRIMARY KEY (run_id, node_name))`,
	`CREATE TABLE IF NOT EXISTS hitl_inputs (
		run_id TEXT NOT NULL, node_name TEXT NOT NULL, property_name TEXT NOT NULL,
		state_json TEXT NOT NULL, input_type TEXT NOT NULL, prompt TEXT NOT NULL,
		default_json TEXT, validation_rule TEXT NOT NULL DEFAULT '',
		value_json TEXT, status TEXT NOT NULL,
		requested_at DATETIME NOT NULL, resolved_at DATETIME,
		PRIMARY KEY (run_id, node_name, property_name))`,
	`CREATE TABLE IF NOT EXISTS hitl_reviews (
		run_id TEXT NOT NULL, node_name TEXT NOT NULL,
		state_json TEXT NOT NULL, review_context TEXT NOT NULL,
		allow_modification INTEGER NOT NULL, reviewed_state_json TEXT,
		status TEXT NOT NULL, requested_at DATETIME NOT NULL, resolved_at DATETIME,
		PRIMARY KEY (run_id, node_name))`,
}

var sharedDDLMySQL = []string{
	`CREATE TABLE IF NOT EXISTS hitl_approvals (
		run_id VARCHAR(191) NOT NULL, node_name VARCHAR(191) NOT NULL,
		state_json JSON NOT NULL, message TEXT NOT NULL, status VARCHAR(32) NOT NULL,
		requested_at DATETIME NOT NULL, resolved_at DATETIME NULL,
		PRIMARY KEY (run_id, node_name)) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS hitl_decisions (
		run_id VARCHAR(191) NOT NULL, node_name VARCHAR(191) NOT NULL,
		state_json JSON NOT NULL, question TEXT NOT NULL, options_json JSON NOT NULL,
		chosen_option VARCHAR(191) NOT NULL DEFAULT '', status VARCHAR(32) NOT NULL,
		requested_at DATETIME NOT NULL, resolved_at DATETIME NULL,
		PRIMARY KEY (run_id, node_name)) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS hitl_inputs (
		run_id VARCHAR(191) NOT NULL, node_name VARCHAR(191) NOT NULL, property_name VARCHAR(191) NOT NULL,
		state_json JSON NOT NULL, input_type VARCHAR(32) NOT NULL, prompt TEXT NOT NULL,
		default_json JSON NULL, validation_rule VARCHAR(512) NOT NULL DEFAULT '',
		value_json JSON NULL, status VARCHAR(32) NOT NULL,
		requested_at DATETIME NOT NULL, resolved_at DATETIME NULL,
		PRIMARY KEY (run_id, node_name, property_name)) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS hitl_reviews (
		run_id VARCHAR(191) NOT NULL, node_name VARCHAR(191) NOT NULL,
		state_json JSON NOT NULL, review_context TEXT NOT NULL,
		allow_modification BOOLEAN NOT NULL, reviewed_state_json JSON NULL,
		status VARCHAR(32) NOT NULL, requested_at DATETIME NOT NULL, resolved_at DATETIME NULL,
		PRIMARY KEY (run_id, node_name)) ENGINE=InnoDB`,
}

// sqlPendingStore implements PendingStore[S] over any database/sql driver
// that accepts '?' placeholders (SQLite and MySQL; both SQLStore and
// MySQLStore embed this and differ only in DSN/driver name and DDL dialect).
//
// One *sql.DB, auto-migration on construction, one table per HITL record
// shape.
type sqlPendingStore[S any] struct {
	db *sql.DB
}

func newSQLPendingStore[S any](db *sql.DB, ddl []string) (*sqlPendingStore[S], error) {
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("store: migration failed: %w", err)
		}
	}
	return &sqlPendingStore[S]{db: db}, nil
}

func (s *sqlPendingStore[S]) Close() error { return s.db.Close() }

func marshalState[S any](state S) (string, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("store: marshalling state: %w", err)
	}
	return string(b), nil
}

func unmarshalState[S any](data string) (S, error) {
	var state S
	if data == "" {
		return state, nil
	}
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return state, fmt.Errorf("store: unmarshalling state: %w", err)
	}
	return state, nil
}

func (s *sqlPendingStore[S]) RequestApproval(ctx context.Context, key Key, state S, message string) (ApprovalRecord[S], error) {
	var zero ApprovalRecord[S]
	existing, err := s.GetApproval(ctx, key)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return zero, err
	}

	stateJSON, err := marshalState(state)
	if err != nil {
		return zero, err
	}
	requestedAt := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hitl_approvals (run_id, node_name, state_json, message, status, requested_at) VALUES (?, ?, ?, ?, ?, ?)`,
		key.RunID, key.NodeName, stateJSON, message, string(StatusPending), requestedAt)
	if err != nil {
		return zero, fmt.Errorf("store: inserting approval request: %w", err)
	}
	return ApprovalRecord[S]{Key: key, State: state, Message: message, Status: StatusPending, RequestedAt: requestedAt}, nil
}

func (s *sqlPendingStore[S]) GetApproval(ctx context.Context, key Key) (ApprovalRecord[S], error) {
	var zero ApprovalRecord[S]
	row := s.db.QueryRowContext(ctx,
		`SELECT state_json, message, status, requested_at, resolved_at FROM hitl_approvals WHERE run_id = ? AND node_name = ?`,
		key.RunID, key.NodeName)

	var stateJSON, message, status string
	var requestedAt time.Time
	var resolvedAt sql.NullTime
	if err := row.Scan(&stateJSON, &message, &status, &requestedAt, &resolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("store: loading approval: %w", err)
	}
	state, err := unmarshalState[S](stateJSON)
	if err != nil {
		return zero, err
	}
	record := ApprovalRecord[S]{Key: key, State: state, Message: message, Status: Status(status), RequestedAt: requestedAt}
	if resolvedAt.Valid {
		record.ResolvedAt = resolvedAt.Time
	}
	return record, nil
}

func (s *sqlPendingStore[S]) IsApproved(ctx context.Context, key Key) (bool, error) {
	record, err := s.GetApproval(ctx, key)
	if err != nil {
		return false, err
	}
	return record.Status == StatusApproved, nil
}

func (s *sqlPendingStore[S]) Approve(ctx context.Context, key Key) error {
	return s.resolveApproval(ctx, key, StatusApproved)
}

func (s *sqlPendingStore[S]) Reject(ctx context.Context, key Key) error {
	return s.resolveApproval(ctx, key, StatusRejected)
}

func (s *sqlPendingStore[S]) ApproveWithModification(ctx context.Context, key Key, newState S) error {
	stateJSON, err := marshalState(newState)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE hitl_approvals SET state_json = ?, status = ?, resolved_at = ? WHERE run_id = ? AND node_name = ? AND status = ?`,
		stateJSON, string(StatusModified), time.Now().UTC(), key.RunID, key.NodeName, string(StatusPending))
	if err != nil {
		return fmt.Errorf("store: resolving approval with modification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		if _, getErr := s.GetApproval(ctx, key); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *sqlPendingStore[S]) resolveApproval(ctx context.Context, key Key, status Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hitl_approvals SET status = ?, resolved_at = ? WHERE run_id = ? AND node_name = ? AND status = ?`,
		string(status), time.Now().UTC(), key.RunID, key.NodeName, string(StatusPending))
	if err != nil {
		return fmt.Errorf("store: resolving approval: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		if _, getErr := s.GetApproval(ctx, key); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *sqlPendingStore[S]) RemoveApproval(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM hitl_approvals WHERE run_id = ? AND node_name = ?`, key.RunID, key.NodeName)
	return err
}

func (s *sqlPendingStore[S]) RequestDecision(ctx context.Context, key Key, state S, question string, options []string) (DecisionRecord[S], error) {
	var zero DecisionRecord[S]
	existing, err := s.GetDecision(ctx, key)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return zero, err
	}

	stateJSON, err := marshalState(state)
	if err != nil {
		return zero, err
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return zero, fmt.Errorf("store: marshalling options: %w", err)
	}
	requestedAt := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hitl_decisions (run_id, node_name, state_json, question, options_json, status, requested_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.RunID, key.NodeName, stateJSON, question, string(optionsJSON), string(StatusPending), requestedAt)
	if err != nil {
		return zero, fmt.Errorf("store: inserting decision request: %w", err)
	}
	return DecisionRecord[S]{Key: key, State: state, Question: question, Options: options, Status: StatusPending, RequestedAt: requestedAt}, nil
}

func (s *sqlPendingStore[S]) GetDecision(ctx context.Context, key Key) (DecisionRecord[S], error) {
	var zero DecisionRecord[S]
	row := s.db.QueryRowContext(ctx,
		`SELECT state_json, question, options_json, chosen_option, status, requested_at, resolved_at FROM hitl_decisions WHERE run_id = ? AND node_name = ?`,
		key.RunID, key.NodeName)

	var stateJSON, question, optionsJSON, option, status string
	var requestedAt time.Time
	var resolvedAt sql.NullTime
	if err := row.Scan(&stateJSON, &question, &optionsJSON, &option, &status, &requestedAt, &resolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("store: loading decision: %w", err)
	}
	state, err := unmarshalState[S](stateJSON)
	if err != nil {
		return zero, err
	}
	var options []string
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return zero, fmt.Errorf("store: unmarshalling options: %w", err)
	}
	record := DecisionRecord[S]{Key: key, State: state, Question: question, Options: options, Option: option, Status: Status(status), RequestedAt: requestedAt}
	if resolvedAt.Valid {
		record.ResolvedAt = resolvedAt.Time
	}
	return record, nil
}

func (s *sqlPendingStore[S]) SetDecision(ctx context.Context, key Key, option string) error {
	record, err := s.GetDecision(ctx, key)
	if err != nil {
		return err
	}
	if !contains(record.Options, option) {
		return ErrInvalidOption
	}
	if record.Status != StatusPending {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE hitl_decisions SET chosen_option = ?, status = ?, resolved_at = ? WHERE run_id = ? AND node_name = ?`,
		option, string(StatusApproved), time.Now().UTC(), key.RunID, key.NodeName)
	if err != nil {
		return fmt.Errorf("store: resolving decision: %w", err)
	}
	return nil
}

func (s *sqlPendingStore[S]) RemoveDecision(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM hitl_decisions WHERE run_id = ? AND node_name = ?`, key.RunID, key.NodeName)
	return err
}

func (s *sqlPendingStore[S]) RequestInput(ctx context.Context, key Key, state S, typ InputType, prompt string, defaultValue any, validationRule string) (InputRecord[S], error) {
	var zero InputRecord[S]
	existing, err := s.GetInput(ctx, key)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return zero, err
	}

	stateJSON, err := marshalState(state)
	if err != nil {
		return zero, err
	}
	defaultJSON, err := json.Marshal(defaultValue)
	if err != nil {
		return zero, fmt.Errorf("store: marshalling default value: %w", err)
	}
	requestedAt := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hitl_inputs (run_id, node_name, property_name, state_json, input_type, prompt, default_json, validation_rule, status, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.RunID, key.NodeName, key.PropertyName, stateJSON, string(typ), prompt, string(defaultJSON), validationRule, string(StatusPending), requestedAt)
	if err != nil {
		return zero, fmt.Errorf("store: inserting input request: %w", err)
	}
	return InputRecord[S]{
		Key: key, State: state, Type: typ, Prompt: prompt, DefaultValue: defaultValue,
		ValidationRule: validationRule, Status: StatusPending, RequestedAt: requestedAt,
	}, nil
}

func (s *sqlPendingStore[S]) GetInput(ctx context.Context, key Key) (InputRecord[S], error) {
	var zero InputRecord[S]
	row := s.db.QueryRowContext(ctx,
		`SELECT state_json, input_type, prompt, default_json, validation_rule, value_json, status, requested_at, resolved_at
		 FROM hitl_inputs WHERE run_id = ? AND node_name = ? AND property_name = ?`,
		key.RunID, key.NodeName, key.PropertyName)

	var stateJSON, typ, prompt, validationRule, status string
	var defaultJSON, valueJSON sql.NullString
	var requestedAt time.Time
	var resolvedAt sql.NullTime
	if err := row.Scan(&stateJSON, &typ, &prompt, &defaultJSON, &validationRule, &valueJSON, &status, &requestedAt, &resolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("store: loading input: %w", err)
	}
	state, err := unmarshalState[S](stateJSON)
	if err != nil {
		return zero, err
	}
	record := InputRecord[S]{
		Key: key, State: state, Type: InputType(typ), Prompt: prompt,
		ValidationRule: validationRule, Status: Status(status), RequestedAt: requestedAt,
	}
	if defaultJSON.Valid && defaultJSON.String != "" {
		var v any
		if err := json.Unmarshal([]byte(defaultJSON.String), &v); err == nil {
			record.DefaultValue = v
		}
	}
	if valueJSON.Valid && valueJSON.String != "" {
		var v any
		if err := json.Unmarshal([]byte(valueJSON.String), &v); err != nil {
			return zero, fmt.Errorf("store: unmarshalling input value: %w", err)
		}
		record.Value = v
	}
	if resolvedAt.Valid {
		record.ResolvedAt = resolvedAt.Time
	}
	return record, nil
}

func (s *sqlPendingStore[S]) SetInput(ctx context.Context, key Key, value any) error {
	record, err := s.GetInput(ctx, key)
	if err != nil {
		return err
	}
	if record.Status != StatusPending {
		return nil
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: marshalling input value: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE hitl_inputs SET value_json = ?, status = ?, resolved_at = ? WHERE run_id = ? AND node_name = ? AND property_name = ?`,
		string(valueJSON), string(StatusApproved), time.Now().UTC(), key.RunID, key.NodeName, key.PropertyName)
	if err != nil {
		return fmt.Errorf("store: resolving input: %w", err)
	}
	return nil
}

func (s *sqlPendingStore[S]) RemoveInput(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM hitl_inputs WHERE run_id = ? AND node_name = ? AND property_name = ?`, key.RunID, key.NodeName, key.PropertyName)
	return err
}

func (s *sqlPendingStore[S]) RequestReview(ctx context.Context, key Key, state S, reviewContext string, allowModification bool) (ReviewRecord[S], error) {
	var zero ReviewRecord[S]
	existing, err := s.GetReview(ctx, key)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return zero, err
	}

	stateJSON, err := marshalState(state)
	if err != nil {
		return zero, err
	}
	requestedAt := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hitl_reviews (run_id, node_name, state_json, review_context, allow_modification, status, requested_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.RunID, key.NodeName, stateJSON, reviewContext, allowModification, string(StatusPending), requestedAt)
	if err != nil {
		return zero, fmt.Errorf("store: inserting review request: %w", err)
	}
	return ReviewRecord[S]{Key: key, State: state, Context: reviewContext, AllowModification: allowModification, Status: StatusPending, RequestedAt: requestedAt}, nil
}

func (s *sqlPendingStore[S]) GetReview(ctx context.Context, key Key) (ReviewRecord[S], error) {
	var zero ReviewRecord[S]
	row := s.db.QueryRowContext(ctx,
		`SELECT state_json, review_context, allow_modification, reviewed_state_json, status, requested_at, resolved_at
		 FROM hitl_reviews WHERE run_id = ? AND node_name = ?`,
		key.RunID, key.NodeName)

	var stateJSON, reviewContext, status string
	var allowModification bool
	var reviewedStateJSON sql.NullString
	var requestedAt time.Time
	var resolvedAt sql.NullTime
	if err := row.Scan(&stateJSON, &reviewContext, &allowModification, &reviewedStateJSON, &status, &requestedAt, &resolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("store: loading review: %w", err)
	}
	state, err := unmarshalState[S](stateJSON)
	if err != nil {
		return zero, err
	}
	record := ReviewRecord[S]{Key: key, State: state, Context: reviewContext, AllowModification: allowModification, Status: Status(status), RequestedAt: requestedAt}
	if reviewedStateJSON.Valid && reviewedStateJSON.String != "" {
		reviewed, err := unmarshalState[S](reviewedStateJSON.String)
		if err != nil {
			return zero, err
		}
		record.ReviewedState = reviewed
	}
	if resolvedAt.Valid {
		record.ResolvedAt = resolvedAt.Time
	}
	return record, nil
}

func (s *sqlPendingStore[S]) SetReviewedState(ctx context.Context, key Key, newState S) error {
	record, err := s.GetReview(ctx, key)
	if err != nil {
		return err
	}
	if record.Status != StatusPending {
		return nil
	}
	reviewedJSON, err := marshalState(newState)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE hitl_reviews SET reviewed_state_json = ?, status = ?, resolved_at = ? WHERE run_id = ? AND node_name = ?`,
		reviewedJSON, string(StatusApproved), time.Now().UTC(), key.RunID, key.NodeName)
	if err != nil {
		return fmt.Errorf("store: resolving review: %w", err)
	}
	return nil
}

func (s *sqlPendingStore[S]) RemoveReview(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM hitl_reviews WHERE run_id = ? AND node_name = ?`, key.RunID, key.NodeName)
	return err
}

func (s *sqlPendingStore[S]) ListPendingApprovals(ctx context.Context, olderThan time.Time) ([]ApprovalRecord[S], error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, node_name, state_json, message, requested_at FROM hitl_approvals WHERE status = ? AND requested_at < ?`,
		string(StatusPending), olderThan)
	if err != nil {
		return nil, fmt.Errorf("store: scanning pending approvals: %w", err)
	}
	defer rows.Close()

	var out []ApprovalRecord[S]
	for rows.Next() {
		var runID, nodeName, stateJSON, message string
		var requestedAt time.Time
		if err := rows.Scan(&runID, &nodeName, &stateJSON, &message, &requestedAt); err != nil {
			return nil, fmt.Errorf("store: reading pending approval row: %w", err)
		}
		state, err := unmarshalState[S](stateJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, ApprovalRecord[S]{
			Key: Key{RunID: runID, NodeName: nodeName}, State: state, Message: message,
			Status: StatusPending, RequestedAt: requestedAt,
		})
	}
	return out, rows.Err()
}

func (s *sqlPendingStore[S]) ListPendingDecisions(ctx context.Context, olderThan time.Time) ([]DecisionRecord[S], error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, node_name, state_json, question, options_json, requested_at FROM hitl_decisions WHERE status = ? AND requested_at < ?`,
		string(StatusPending), olderThan)
	if err != nil {
		return nil, fmt.Errorf("store: scanning pending decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord[S]
	for rows.Next() {
		var runID, nodeName, stateJSON, question, optionsJSON string
		var requestedAt time.Time
		if err := rows.Scan(&runID, &nodeName, &stateJSON, &question, &optionsJSON, &requestedAt); err != nil {
			return nil, fmt.Errorf("store: reading pending decision row: %w", err)
		}
		state, err := unmarshalState[S](stateJSON)
		if err != nil {
			return nil, err
		}
		var options []string
		if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
			return nil, fmt.Errorf("store: unmarshalling options: %w", err)
		}
		out = append(out, DecisionRecord[S]{
			Key: Key{RunID: runID, NodeName: nodeName}, State: state, Question: question,
			Options: options, Status: StatusPending, RequestedAt: requestedAt,
		})
	}
	return out, rows.Err()
}

func (s *sqlPendingStore[S]) ListPendingInputs(ctx context.Context, olderThan time.Time) ([]InputRecord[S], error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, node_name, property_name, state_json, input_type, prompt, requested_at FROM hitl_inputs WHERE status = ? AND requested_at < ?`,
		string(StatusPending), olderThan)
	if err != nil {
		return nil, fmt.Errorf("store: scanning pending inputs: %w", err)
	}
	defer rows.Close()

	var out []InputRecord[S]
	for rows.Next() {
		var runID, nodeName, propertyName, stateJSON, typ, prompt string
		var requestedAt time.Time
		if err := rows.Scan(&runID, &nodeName, &propertyName, &stateJSON, &typ, &prompt, &requestedAt); err != nil {
			return nil, fmt.Errorf("store: reading pending input row: %w", err)
		}
		state, err := unmarshalState[S](stateJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, InputRecord[S]{
			Key: Key{RunID: runID, NodeName: nodeName, PropertyName: propertyName}, State: state,
			Type: InputType(typ), Prompt: prompt, Status: StatusPending, RequestedAt: requestedAt,
		})
	}
	return out, rows.Err()
}

func (s *sqlPendingStore[S]) ListPendingReviews(ctx context.Context, olderThan time.Time) ([]ReviewRecord[S], error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, node_name, state_json, review_context, allow_modification, requested_at FROM hitl_reviews WHERE status = ? AND requested_at < ?`,
		string(StatusPending), olderThan)
	if err != nil {
		return nil, fmt.Errorf("store: scanning pending reviews: %w", err)
	}
	defer rows.Close()

	var out []ReviewRecord[S]
	for rows.Next() {
		var runID, nodeName, stateJSON, reviewContext string
		var allowModification bool
		var requestedAt time.Time
		if err := rows.Scan(&runID, &nodeName, &stateJSON, &reviewContext, &allowModification, &requestedAt); err != nil {
			return nil, fmt.Errorf("store: reading pending review row: %w", err)
		}
		state, err := unmarshalState[S](stateJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, ReviewRecord[S]{
			Key: Key{RunID: runID, NodeName: nodeName}, State: state, Context: reviewContext,
			AllowModification: allowModification, Status: StatusPending, RequestedAt: requestedAt,
		})
	}
	return out, rows.Err()
}
