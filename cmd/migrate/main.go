package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS redemptions CASCADE`,
		`DROP TABLE IF EXISTS participations CASCADE`,
		`DROP TABLE IF EXISTS rewards CASCADE`,
		`DROP TABLE IF EXISTS activities CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			address VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			balance INTEGER NOT NULL DEFAULT 0,
			tier VARCHAR(16) NOT NULL DEFAULT 'Nuevo',
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(32) NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			location VARCHAR(255) NOT NULL DEFAULT '',
			max_participants INTEGER NOT NULL,
			current_participants INTEGER NOT NULL DEFAULT 0,
			tokens_reward INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(16) NOT NULL DEFAULT 'available',
			organizer VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT capacity_check CHECK (current_participants <= max_participants)
		)`,
		`CREATE TABLE IF NOT EXISTS participations (
			id UUID PRIMARY KEY,
			activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			user_address VARCHAR(64) NOT NULL REFERENCES users(address) ON DELETE CASCADE,
			status VARCHAR(16) NOT NULL DEFAULT 'enrolled',
			tokens_earned INTEGER NOT NULL DEFAULT 0,
			enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT one_per_activity UNIQUE (activity_id, user_address)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_participations_user ON participations(user_address)`,
		`CREATE INDEX IF NOT EXISTS idx_participations_status ON participations(status, updated_at)`,
		`CREATE TABLE IF NOT EXISTS rewards (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			cost INTEGER NOT NULL,
			category VARCHAR(32) NOT NULL DEFAULT '',
			available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS redemptions (
			id UUID PRIMARY KEY,
			reward_id INTEGER NOT NULL REFERENCES rewards(id),
			user_address VARCHAR(64) NOT NULL REFERENCES users(address),
			cost INTEGER NOT NULL,
			redeemed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_redemptions_user ON redemptions(user_address)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	fmt.Println("  Created: users, activities, participations, rewards, redemptions")

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`INSERT INTO activities (name, category, date, location, max_participants, current_participants, tokens_reward, organizer) VALUES
			('Limpieza del Río Cali', 'cleanup', NOW() + INTERVAL '3 days', 'Río Cali, Sector Bosque', 40, 12, 15, 'Fundación Río Limpio'),
			('Taller de Compostaje', 'education', NOW() + INTERVAL '7 days', 'Centro Cultural Comuna 18', 25, 25, 20, 'EcoEduca'),
			('Siembra en el Cerro', 'reforestation', NOW() + INTERVAL '10 days', 'Cerro de las Tres Cruces', 60, 41, 30, 'Reforesta Cali'),
			('Jornada de Reciclaje', 'cleanup', NOW() + INTERVAL '14 days', 'Plaza de Caicedo', 30, 5, 10, 'Recicla Ya'),
			('Charla Huertas Urbanas', 'education', NOW() - INTERVAL '2 days', 'Biblioteca Departamental', 50, 33, 12, 'Huertas del Valle')
		ON CONFLICT DO NOTHING`,
		`UPDATE activities SET status = 'full' WHERE current_participants >= max_participants`,
		`INSERT INTO rewards (name, description, cost, category, available) VALUES
			('Bono Transporte', 'Pasaje MIO recargable', 25, 'transport', TRUE),
			('Entrada Zoológico', 'Entrada al Zoológico de Cali', 60, 'culture', TRUE),
			('Kit de Siembra', 'Semillas y herramientas básicas', 40, 'eco', TRUE),
			('Camiseta Chonta', 'Edición limitada', 100, 'merch', FALSE)
		ON CONFLICT DO NOTHING`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	fmt.Println("  Seeded: activities, rewards")

	return nil
}
