package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nqminh/kitty-market/internal/core/domain"
)

// MySQLSink appends notifications to MySQL. Expected schema:
//
//	CREATE TABLE notifications (
//	    id           CHAR(36) PRIMARY KEY,
//	    kind         VARCHAR(16) NOT NULL,
//	    actor        BIGINT UNSIGNED NOT NULL,
//	    kitty_id     INT UNSIGNED NOT NULL,
//	    genome       BINARY(16) NULL,
//	    counterparty BIGINT UNSIGNED NULL,
//	    price        BIGINT UNSIGNED NOT NULL DEFAULT 0,
//	    created_at   DATETIME(6) NOT NULL
//	);
//
// The core only inserts; indexers and UIs read the table externally.
type MySQLSink struct {
	db *sql.DB
}

func NewMySQLSink(db *sql.DB) *MySQLSink {
	return &MySQLSink{db: db}
}

func (m *MySQLSink) Append(ctx context.Context, n domain.Notification) error {
	var genome any
	if n.Genome != nil {
		genome = n.Genome[:]
	}
	var counterparty any
	if n.Counterparty != nil {
		counterparty = uint64(*n.Counterparty)
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO notifications (id, kind, actor, kitty_id, genome, counterparty, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Kind), uint64(n.Actor), uint32(n.KittyID),
		genome, counterparty, n.Price, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
