package datastore

const authorsSchema = `CREATE TABLE IF NOT EXISTS authors (
		author_id INTEGER PRIMARY KEY,
		author_key TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		book_count INTEGER NOT NULL DEFAULT 0
	)`

const booksSchema = `CREATE TABLE IF NOT EXISTS books (
		book_id INTEGER PRIMARY KEY,
		handle TEXT NOT NULL,
		title TEXT NOT NULL,
		author_id INTEGER NOT NULL REFERENCES authors(author_id),
		author_key TEXT NOT NULL,
		vendor TEXT NOT NULL,
		price TEXT NOT NULL,
		first_publish_year INTEGER,
		edition_count INTEGER NOT NULL DEFAULT 0,
		url TEXT NOT NULL
	)`

const bookSubjectsSchema = `CREATE TABLE IF NOT EXISTS book_subjects (
		book_id INTEGER NOT NULL REFERENCES books(book_id),
		subject TEXT NOT NULL,
		PRIMARY KEY (book_id, subject)
	)`

// catalogSchemas are created in dependency order.
var catalogSchemas = []string{authorsSchema, booksSchema, bookSubjectsSchema}
