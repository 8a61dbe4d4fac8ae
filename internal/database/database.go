// Package database manages the PostgreSQL connection pool.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookmate-backend/internal/config"
)

// Service exposes the connection pool plus health/lifecycle operations.
// Handlers depend on this interface, not on pgxpool directly.
type Service interface {
	GetPool() *pgxpool.Pool
	Health() map[string]string
	Close()
}

type service struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection. Startup cannot
// proceed without a database, so failure is fatal.
func New(cfg *config.DBConfig) Service {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		log.Fatalf("Invalid DATABASE_URL: %v", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to PostgreSQL")
	return &service{pool: pool}
}

// GetPool returns the underlying pgx connection pool.
func (s *service) GetPool() *pgxpool.Pool {
	return s.pool
}

// Health reports database reachability for the /api/health endpoint.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		return map[string]string{
			"status":  "down",
			"message": fmt.Sprintf("database unreachable: %v", err),
		}
	}

	stats := s.pool.Stat()
	return map[string]string{
		"status":      "up",
		"connections": fmt.Sprintf("%d/%d", stats.AcquiredConns(), stats.MaxConns()),
	}
}

// Close releases all pool connections.
func (s *service) Close() {
	s.pool.Close()
}
