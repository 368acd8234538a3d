package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"roomfit/internal/gateway"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite: one writer, and ":memory:" is per-connection.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

// NewGateway binds every gateway table to the sqlite repos.
func NewGateway(db *sqlx.DB) gateway.Gateway {
	return gateway.Gateway{
		Products:  NewProductRepo(db),
		Carts:     NewCartRepo(db),
		Orders:    NewOrderRepo(db),
		Inventory: NewInventoryRepo(db),
		Profiles:  NewProfileRepo(db),
		Users:     NewUserRepo(db),
	}
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  category TEXT NOT NULL DEFAULT '',
  material TEXT,
  color TEXT,
  width REAL,
  height REAL,
  depth REAL,
  image_url TEXT NOT NULL DEFAULT '',
  model_url TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Users, profiles & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS profiles(
  id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
  full_name TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  postal_code TEXT NOT NULL DEFAULT '',
  is_admin INTEGER NOT NULL DEFAULT 0,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- doubles as the refresh token
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  recovery INTEGER NOT NULL DEFAULT 0,
  consumed INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Cart
CREATE TABLE IF NOT EXISTS cart_items(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  UNIQUE (user_id, product_id)
);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,           -- no FK: orders outlive deleted products
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  PRIMARY KEY (order_id, product_id)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,name,description,price,category,material,color,width,height,depth,image_url,model_url,stock) VALUES
	  ('velvet-sofa','Velvet Sofa 3-Seater','Deep-seated three seater in soft velvet',145000,'Living Room','Velvet','Emerald Green',210,85,95,'/static/products/velvet-sofa.jpg','',4),
	  ('oak-dining-table','Oak Dining Table','Solid oak table for six',98000,'Dining','Oak','Natural',180,75,90,'/static/products/oak-dining-table.jpg','',6),
	  ('office-table-deluxe','Office Table Deluxe','Executive desk with cable tray',76000,'Office','Walnut veneer','Walnut',160,76,80,'/static/products/office-table-deluxe.jpg','',3),
	  ('lounge-chair','Nordic Lounge Chair','Bent-wood lounge chair',42000,'Living Room','Birch','White',70,80,78,'/static/products/lounge-chair.jpg','',10),
	  ('tall-cabinet','Tall Storage Cabinet','Four shelf storage cabinet',55000,'Storage','Pine','Grey',80,190,40,'/static/products/tall-cabinet.jpg','',5)`)

	return tx.Commit()
}

// seedUsers ensures one customer and one admin exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Hash string
		Admin                 bool
	}
	mk := func(id, email, name, raw string, admin bool) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Hash: string(h), Admin: admin}
	}

	users := []u{
		mk("u-alice", "alice@roomfit.test", "Alice", "Passw0rd!", false),
		mk("u-admin", "admin@roomfit.test", "Admin", "Passw0rd!", true),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,password_hash)
			VALUES(?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Hash); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO profiles(id,full_name,is_admin)
			VALUES(?,?,?)
			ON CONFLICT(id) DO NOTHING
		`, x.ID, x.Name, x.Admin); err != nil {
			return err
		}
	}

	return tx.Commit()
}
