package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	seedVehicles(db)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Name  string
		Email string
		Phone string
		Role  string
	}{
		{"Admin User", "admin@kiraya.com.np", "9800000001", "admin"},
		{"Aarav Shrestha", "aarav@example.com", "9800000002", "customer"},
		{"Sita Gurung", "sita@example.com", "9800000003", "customer"},
		{"Bibek Thapa", "bibek@example.com", "9800000004", "customer"},
		{"Priya Maharjan", "priya@example.com", "9800000005", "customer"},
	}

	log.Println("Seeding Users...")
	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (name, email, phone, password_hash, role)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING;
		`, u.Name, u.Email, u.Phone, hash, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedVehicles(db *sql.DB) {
	vehicles := []struct {
		Name         string
		Slug         string
		Brand        string
		Model        string
		Type         string
		Seats        int
		Transmission string
		Fuel         string
		CostPerDay   int64
		Image        string
		Description  string
	}{
		{"Bajaj Pulsar 150", "bajaj-pulsar-150", "Bajaj", "Pulsar 150", "bike", 2, "manual", "petrol", 1500, "https://images.unsplash.com/photo-1558981806-ec527fa84c39?w=800", "Reliable commuter bike, ideal for city rides and short trips."},
		{"Royal Enfield Classic 350", "royal-enfield-classic-350", "Royal Enfield", "Classic 350", "bike", 2, "manual", "petrol", 3000, "https://images.unsplash.com/photo-1615172282427-9a57ef2d142e?w=800", "Iconic cruiser for highway touring around the valley and beyond."},
		{"Honda Dio", "honda-dio", "Honda", "Dio", "scooter", 2, "automatic", "petrol", 1000, "https://images.unsplash.com/photo-1571068316344-75bc76f77890?w=800", "Light automatic scooter, the easiest way to move around Kathmandu."},
		{"Suzuki Swift", "suzuki-swift", "Suzuki", "Swift", "car", 5, "manual", "petrol", 5000, "https://images.unsplash.com/photo-1549317661-bd32c8ce0db2?w=800", "Compact hatchback with good mileage for day trips."},
		{"Hyundai Creta", "hyundai-creta", "Hyundai", "Creta", "suv", 5, "automatic", "petrol", 8000, "https://images.unsplash.com/photo-1519641471654-76ce0107ad1b?w=800", "Comfortable compact SUV for family outings."},
		{"Mahindra Scorpio S11", "mahindra-scorpio-s11", "Mahindra", "Scorpio S11", "suv", 7, "manual", "diesel", 9000, "https://images.unsplash.com/photo-1533473359331-0135ef1b58bf?w=800", "Rugged 7-seater built for hill roads and longer journeys."},
		{"Toyota Hiace", "toyota-hiace", "Toyota", "Hiace", "van", 12, "manual", "diesel", 12000, "https://images.unsplash.com/photo-1570125909232-eb263c188f7e?w=800", "12-seater van for group travel and trekking transfers."},
	}

	log.Println("Seeding Vehicles...")
	for _, v := range vehicles {
		_, err := db.Exec(`
			INSERT INTO vehicles (name, slug, brand, model, vehicle_type, seats, transmission, fuel_type,
				cost_per_day, image_url, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (slug) DO UPDATE SET
				cost_per_day = EXCLUDED.cost_per_day,
				image_url = EXCLUDED.image_url,
				description = EXCLUDED.description;
		`, v.Name, v.Slug, v.Brand, v.Model, v.Type, v.Seats, v.Transmission, v.Fuel,
			v.CostPerDay, v.Image, v.Description)
		if err != nil {
			log.Printf("Failed to seed vehicle %s: %v", v.Name, err)
		}
	}
}
