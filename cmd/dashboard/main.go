package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"charge-dispatch/pkg/config"

	"github.com/go-chi/chi/v5"

	_ "github.com/lib/pq"
)

type Order struct {
	ID            string    `json:"id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	WorkerName    string    `json:"worker_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Survey struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TimelineEvent struct {
	Type      string      `json:"type"` // "ORDER" or "SURVEY"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func main() {
	cfg, err := config.LoadConfig("notify.config.yaml")
	if err != nil {
		// Fallback for development if running from cmd/dashboard
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

	r := chi.NewRouter()

	fs := http.FileServer(http.Dir("./cmd/dashboard/static"))
	r.Handle("/*", fs)

	r.Get("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		enableCors(w)

		page, _ := strconv.Atoi(req.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		if limit < 1 {
			limit = 20
		}
		offset := (page - 1) * limit

		var total int
		db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&total)

		rows, err := db.Query(`
			SELECT o.id, o.order_number, o.status, c.name, c.email, COALESCE(wk.name, ''), o.created_at
			FROM orders o
			JOIN customers c ON c.id = o.customer_id
			LEFT JOIN workers wk ON wk.id = o.assigned_worker_id
			ORDER BY o.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()

		var orders []Order = []Order{}
		for rows.Next() {
			var o Order
			if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.CustomerName, &o.CustomerEmail, &o.WorkerName, &o.CreatedAt); err != nil {
				continue
			}
			orders = append(orders, o)
		}

		response := map[string]interface{}{
			"data": orders,
			"meta": map[string]interface{}{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": (total + limit - 1) / limit,
			},
		}
		json.NewEncoder(w).Encode(response)
	})

	r.Get("/api/orders/{orderID}/timeline", func(w http.ResponseWriter, req *http.Request) {
		enableCors(w)
		orderID := chi.URLParam(req, "orderID")

		var timeline []TimelineEvent = []TimelineEvent{}

		var o Order
		err := db.QueryRow(`
			SELECT o.id, o.order_number, o.status, c.name, c.email, COALESCE(wk.name, ''), o.created_at
			FROM orders o
			JOIN customers c ON c.id = o.customer_id
			LEFT JOIN workers wk ON wk.id = o.assigned_worker_id
			WHERE o.id = $1`, orderID).
			Scan(&o.ID, &o.OrderNumber, &o.Status, &o.CustomerName, &o.CustomerEmail, &o.WorkerName, &o.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				http.Error(w, "order not found", 404)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		timeline = append(timeline, TimelineEvent{Type: "ORDER", Timestamp: o.CreatedAt, Data: o})

		sRows, err := db.Query(
			"SELECT id, order_id, status, created_at, updated_at FROM surveys WHERE order_id = $1 ORDER BY created_at ASC", orderID)
		if err == nil {
			defer sRows.Close()
			for sRows.Next() {
				var s Survey
				sRows.Scan(&s.ID, &s.OrderID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
				timeline = append(timeline, TimelineEvent{Type: "SURVEY", Timestamp: s.UpdatedAt, Data: s})
			}
		}

		sort.SliceStable(timeline, func(i, j int) bool {
			return timeline[i].Timestamp.Before(timeline[j].Timestamp)
		})

		json.NewEncoder(w).Encode(map[string]interface{}{"data": timeline})
	})

	port := cfg.Server.Port + 1
	fmt.Printf("Dashboard running at http://localhost:%d\n", port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), r))
}

func enableCors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
}
