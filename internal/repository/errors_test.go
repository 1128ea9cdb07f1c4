package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsDuplicateSlot(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-2026-09-15-19:00:00-A' for key 'uq_active_reservation_per_slot'"}
	if !IsDuplicateSlot(dup) {
		t.Fatal("duplicate-key error not recognised")
	}
	if !IsDuplicateSlot(fmt.Errorf("insert reservation: %w", dup)) {
		t.Fatal("wrapped duplicate-key error not recognised")
	}
	if IsDuplicateSlot(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"}) {
		t.Fatal("deadlock misclassified as duplicate key")
	}
	if IsDuplicateSlot(errors.New("duplicate entry")) {
		t.Fatal("plain error misclassified by message")
	}
	if IsDuplicateSlot(nil) {
		t.Fatal("nil misclassified")
	}
}
