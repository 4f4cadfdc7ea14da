package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/coursehub/backend/internal/models"
)

// nextPosition returns MAX(position)+1 of the siblings sharing parentColumn = parentID,
// locking the sibling rows for the rest of the transaction
func nextPosition(ctx context.Context, tx *sql.Tx, table, parentColumn string, parentID int) (int, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(position), 0) FROM %s WHERE %s = ? FOR UPDATE", table, parentColumn)

	var maxPosition int
	if err := tx.QueryRowContext(ctx, query, parentID).Scan(&maxPosition); err != nil {
		return 0, fmt.Errorf("failed to get next %s position: %w", table, err)
	}

	return maxPosition + 1, nil
}

// closeGap shifts siblings after a removed position up by one so positions stay contiguous
func closeGap(ctx context.Context, tx *sql.Tx, table, parentColumn string, parentID, removedPosition int) error {
	query := fmt.Sprintf("UPDATE %s SET position = position - 1 WHERE %s = ? AND position > ?", table, parentColumn)

	if _, err := tx.ExecContext(ctx, query, parentID, removedPosition); err != nil {
		return fmt.Errorf("failed to compact %s positions: %w", table, err)
	}
	return nil
}

// reorder assigns positions 1..n following ids; ids must be exactly the current children
func reorder(ctx context.Context, db *sql.DB, table, parentColumn string, parentID int, ids []int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf("SELECT id FROM %s WHERE %s = ? FOR UPDATE", table, parentColumn)
	rows, err := tx.QueryContext(ctx, query, parentID)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	current := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		current = append(current, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	if !sameIDs(current, ids) {
		return models.NewValidationError("ids", fmt.Sprintf("must list every item of the parent exactly once (%d expected)", len(current)))
	}

	update := fmt.Sprintf("UPDATE %s SET position = ? WHERE id = ?", table)
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, update, i+1, id); err != nil {
			return fmt.Errorf("failed to update %s position: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func sameIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
