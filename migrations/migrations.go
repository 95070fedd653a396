package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

type User struct {
	ID        int       `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	Street    string    `db:"street"`
	Number    string    `db:"number"`
	City      string    `db:"city"`
	Phone     string    `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Address renders the delivery address the way dispatch prints it.
func (u *User) Address() string {
	if u.Street == "" {
		return u.City
	}
	addr := u.Street + " " + u.Number
	if u.City != "" {
		addr += ", " + u.City
	}
	return addr
}

var db *sql.DB

// Init sets the DB connection for migrations and queries
func Init(database *sql.DB) {
	db = database
}

// Migrate creates required tables if they do not exist
func Migrate() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	createUsers := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(191) NOT NULL UNIQUE,
		password VARCHAR(191) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'CLIENT',
		street VARCHAR(150) NOT NULL DEFAULT '',
		number VARCHAR(20) NOT NULL DEFAULT '',
		city VARCHAR(100) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createUsers); err != nil {
		return err
	}

	createProducts := `
	CREATE TABLE IF NOT EXISTS products (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(150) NOT NULL,
		description TEXT,
		category VARCHAR(20) NOT NULL,
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		image_url VARCHAR(255) NOT NULL DEFAULT '',
		in_stock TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createProducts); err != nil {
		return err
	}

	createPlans := `
	CREATE TABLE IF NOT EXISTS plans (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description TEXT,
		price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		boxes_per_month INT NOT NULL DEFAULT 0,
		benefits JSON NULL,
		allowed_categories JSON NULL,
		active TINYINT(1) NOT NULL DEFAULT 1,
		stripe_product_id VARCHAR(100) NOT NULL DEFAULT '',
		stripe_price_id VARCHAR(100) NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createPlans); err != nil {
		return err
	}

	createSubs := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		plan_id INT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PAUSED',
		delivery_preference INT NOT NULL DEFAULT 1,
		start_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		end_date DATETIME NULL,
		next_payment_date DATETIME NULL,
		payment_reference VARCHAR(100) NOT NULL DEFAULT '',
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createSubs); err != nil {
		return err
	}

	createOrders := `
	CREATE TABLE IF NOT EXISTS orders (
		id INT AUTO_INCREMENT PRIMARY KEY,
		subscription_id INT NOT NULL,
		user_id INT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		delivery_date DATE NOT NULL,
		delivery_time VARCHAR(50) NOT NULL DEFAULT '09:00 - 13:00',
		delivery_address VARCHAR(255) NOT NULL DEFAULT '',
		total_amount DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		FOREIGN KEY (subscription_id) REFERENCES subscriptions(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createOrders); err != nil {
		return err
	}

	createItems := `
	CREATE TABLE IF NOT EXISTS order_items (
		id INT AUTO_INCREMENT PRIMARY KEY,
		order_id INT NOT NULL,
		product_id INT NOT NULL,
		quantity INT NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := db.Exec(createItems); err != nil {
		return err
	}
	return nil
}

// SeedDefaultAdmin inserts the back-office user if none exists
func SeedDefaultAdmin() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE role = 'ADMIN'").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err := db.Exec(
			"INSERT INTO users (first_name, last_name, email, password, role) VALUES (?, ?, ?, ?, ?)",
			"Admin", "Pastafresca", "admin@pastafresca.com.ar", "cambiame", "ADMIN",
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedDefaultPlans inserts the three storefront plans if none exist
func SeedDefaultPlans() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM plans").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		rows := []string{
			`INSERT INTO plans (name, description, price, boxes_per_month, benefits, allowed_categories, active) VALUES
			('Clásico', 'Pasta fresca de siempre, todos los meses', 18000.00, 4,
			'["4 cajas por mes","Línea clásica","Entrega a domicilio"]',
			'["CLASICA"]', 1)`,
			`INSERT INTO plans (name, description, price, boxes_per_month, benefits, allowed_categories, active) VALUES
			('Relleno', 'Clásicas y rellenas para toda la familia', 26000.00, 6,
			'["6 cajas por mes","Línea clásica y rellena","Entrega a domicilio"]',
			'["CLASICA","RELLENA"]', 1)`,
			`INSERT INTO plans (name, description, price, boxes_per_month, benefits, allowed_categories, active) VALUES
			('Premium', 'Toda la carta, incluida la línea premium', 38000.00, 8,
			'["8 cajas por mes","Carta completa","Línea premium","Entrega prioritaria"]',
			'["CLASICA","RELLENA","PREMIUM"]', 1)`,
		}
		for _, q := range rows {
			if _, err := db.Exec(q); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedDefaultProducts inserts the starting catalog if the table is empty
func SeedDefaultProducts() error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM products").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	products := []struct {
		name, description, category string
		price                       float64
	}{
		{"Spaghetti", "Al huevo, cortado a cuchillo", "CLASICA", 3500},
		{"Fettuccine", "Clásico de la casa", "CLASICA", 3500},
		{"Penne", "Sémola de grano duro", "CLASICA", 3200},
		{"Sorrentinos Jamón y Queso", "Masa de espinaca", "RELLENA", 5200},
		{"Ravioles Ricota y Espinaca", "Receta de la nonna", "RELLENA", 4800},
		{"Tortellini Boloñesa", "Relleno de carne braseada", "RELLENA", 5000},
		{"Agnolotti del Plin", "Piamonteses, pellizcados a mano", "RELLENA", 5400},
		{"Tagliatelle Trufa", "Con trufa negra", "PREMIUM", 8200},
		{"Ravioles de Langosta", "Edición limitada", "PREMIUM", 9500},
		{"Pappardelle Porcini", "Con hongos porcini", "PREMIUM", 7800},
	}
	for _, p := range products {
		if _, err := db.Exec(
			"INSERT INTO products (name, description, category, price, in_stock) VALUES (?, ?, ?, ?, 1)",
			p.name, p.description, p.category, p.price,
		); err != nil {
			return err
		}
	}
	return nil
}

// GetUserByEmail retrieves a user from DB by email
func GetUserByEmail(email string) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT id, first_name, last_name, email, password, role, street, number, city, phone, created_at, updated_at FROM users WHERE email = ? LIMIT 1", email)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.Street, &u.Number, &u.City, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil
	}
	return &u
}

// GetUserByID retrieves a user by its ID
func GetUserByID(id int) *User {
	if db == nil {
		return nil
	}
	row := db.QueryRow("SELECT id, first_name, last_name, email, password, role, street, number, city, phone, created_at, updated_at FROM users WHERE id = ? LIMIT 1", id)
	var u User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.Street, &u.Number, &u.City, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil
	}
	return &u
}

// ListUsers returns every registered user, newest first
func ListUsers() ([]User, error) {
	if db == nil {
		return nil, fmt.Errorf("db is not initialized")
	}
	rows, err := db.Query("SELECT id, first_name, last_name, email, password, role, street, number, city, phone, created_at, updated_at FROM users ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Role, &u.Street, &u.Number, &u.City, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserProfile updates names and delivery data, keeping current values for empty fields
func UpdateUserProfile(id int, firstName, lastName, street, number, city, phone string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	cur := GetUserByID(id)
	if cur == nil {
		return fmt.Errorf("user not found")
	}
	if firstName == "" {
		firstName = cur.FirstName
	}
	if lastName == "" {
		lastName = cur.LastName
	}
	if street == "" {
		street = cur.Street
	}
	if number == "" {
		number = cur.Number
	}
	if city == "" {
		city = cur.City
	}
	if phone == "" {
		phone = cur.Phone
	}
	_, err := db.Exec("UPDATE users SET first_name = ?, last_name = ?, street = ?, number = ?, city = ?, phone = ?, updated_at = NOW() WHERE id = ?",
		firstName, lastName, street, number, city, phone, id)
	return err
}

// UpdateUserPassword updates the password for the given user id
func UpdateUserPassword(id int, password string) error {
	if db == nil {
		return fmt.Errorf("db is not initialized")
	}
	_, err := db.Exec("UPDATE users SET password = ?, updated_at = NOW() WHERE id = ?", password, id)
	return err
}

// CreateUser inserts a new user record and returns its id
func CreateUser(firstName, lastName, email, password, role, street, number, city, phone string) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("db is not initialized")
	}
	res, err := db.Exec(
		"INSERT INTO users (first_name, last_name, email, password, role, street, number, city, phone) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		firstName, lastName, email, password, role, street, number, city, phone,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// EmailExists checks if a user with the given email exists
func EmailExists(email string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("db is not initialized")
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
