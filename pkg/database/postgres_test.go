package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/edu-ops-api/pkg/config"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "teachers_email_key"}
	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create teacher: %w", dup)))
	assert.Equal(t, "teachers_email_key", ConstraintName(fmt.Errorf("wrap: %w", dup)))

	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("delete: %w", &pq.Error{Code: "23503"})))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.Empty(t, ConstraintName(errors.New("boom")))
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "edu_ops", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=edu_ops sslmode=disable", dsn)
}
