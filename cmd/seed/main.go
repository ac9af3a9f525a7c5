package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexusclinic/clinic-scheduling/internal/db"
	"github.com/nexusclinic/clinic-scheduling/internal/scheduling"
)

const seedTenant = "tenant-demo"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	procedures, err := seedProcedures(context.Background(), pool, 20)
	if err != nil {
		log.Fatalf("seed procedures: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, procedures, 300); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedProcedures(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d procedures", count)

	names := []string{
		"Botox", "Lip Filler", "Chemical Peel", "Microneedling",
		"Laser Hair Removal", "Cryolipolysis", "Carboxytherapy",
		"Dermal Filler", "Skin Booster", "PDO Threads",
	}
	durations := []int{30, 45, 60, 90, 120}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	now := time.Now()
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := names[i%len(names)]
		duration := durations[gofakeit.Number(0, len(durations)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO procedures (id, tenant_id, name, default_duration, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)`,
			id, seedTenant, name, duration, now,
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, procedures []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	locations := []scheduling.Location{
		scheduling.LocationMoema,
		scheduling.LocationAvPaulista,
		scheduling.LocationPerdizes,
		scheduling.LocationOnline,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	for i := 0; i < count; i++ {
		day := now.AddDate(0, 0, gofakeit.Number(1, 30))
		hour := gofakeit.Number(scheduling.DefaultStartHour, scheduling.DefaultEndHour-1)
		scheduled := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.Local)

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (
				id, tenant_id, patient_id, procedure_id,
				scheduled_date, location,
				status, payment_status, anamnesis_status, has_return,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`,
			uuid.New(), seedTenant, uuid.New(), procedures[gofakeit.Number(0, len(procedures)-1)],
			scheduled, locations[gofakeit.Number(0, len(locations)-1)],
			scheduling.StatusAwaitingPayment, scheduling.PaymentPending, scheduling.AnamnesisPending, false,
			now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
