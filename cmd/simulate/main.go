package main

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"charge-dispatch/pkg/config"
	"charge-dispatch/pkg/notify"

	"github.com/google/uuid"

	_ "github.com/lib/pq"
)

// Walks one order through the full dispatch ladder against a live
// database, firing the triggers the notifier listens on. Run the
// notifier first and watch the order ID this prints.
func main() {
	cfg, err := config.LoadConfig("notify.config.yaml")
	if err != nil {
		cfg, err = config.LoadConfig("../../notify.config.yaml")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}

	db, err := sql.Open("postgres", cfg.GetConnString())
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()

	customerID := uuid.NewString()
	workerID := uuid.NewString()
	orderID := uuid.NewString()
	if len(os.Args) > 1 {
		orderID = os.Args[1]
	}
	orderNumber := fmt.Sprintf("ORD-%05d", rand.Intn(99999))

	_, err = db.Exec("INSERT INTO customers (id, name, email) VALUES ($1, $2, $3)",
		customerID, "Jane Doe", "jane@example.com")
	checkErr(err)
	_, err = db.Exec("INSERT INTO workers (id, name) VALUES ($1, $2)",
		workerID, "Bob")
	checkErr(err)
	_, err = db.Exec(
		"INSERT INTO orders (id, order_number, status, customer_id) VALUES ($1, $2, $3, $4)",
		orderID, orderNumber, notify.OrderSubmitted, customerID)
	checkErr(err)

	fmt.Printf("Created order %s (%s). Watch it via the notifier API, then press enter.\n", orderID, orderNumber)
	fmt.Scanln()

	// 1. Schedule the installation and assign a worker.
	fmt.Println("-> [1] Scheduled")
	_, err = db.Exec(
		"UPDATE orders SET status = $1, assigned_worker_id = $2, scheduled_date = CURRENT_DATE + 7, updated_at = CURRENT_TIMESTAMP WHERE id = $3",
		notify.OrderScheduled, workerID, orderID)
	checkErr(err)
	time.Sleep(500 * time.Millisecond)

	// 2. Site survey comes in and gets reviewed.
	surveyID := uuid.NewString()
	fmt.Println("-> [2] Survey submitted")
	_, err = db.Exec("INSERT INTO surveys (id, order_id, status) VALUES ($1, $2, $3)",
		surveyID, orderID, notify.SurveySubmitted)
	checkErr(err)
	time.Sleep(500 * time.Millisecond)

	fmt.Println("-> [3] Survey approved")
	_, err = db.Exec("UPDATE surveys SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
		notify.SurveyApproved, surveyID)
	checkErr(err)
	time.Sleep(500 * time.Millisecond)

	// 3. Installation runs to completion.
	for _, status := range []string{
		notify.OrderInProgress,
		notify.OrderPendingCompletion,
		notify.OrderCompleted,
	} {
		fmt.Printf("-> Order status: %s\n", status)
		_, err = db.Exec(
			"UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
			status, orderID)
		checkErr(err)
		time.Sleep(700 * time.Millisecond)
	}

	fmt.Printf("Simulation finished for order %s.\n", orderNumber)
}

func checkErr(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}
