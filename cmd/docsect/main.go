// Command docsect extracts the section hierarchy of technical PDFs into
// per-section JSON artifacts and a SQLite catalog.
package main

func main() {
	Execute()
}
