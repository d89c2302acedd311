package entity

// Page is one rendered unit of content for a category.
type Page struct {
	Category Category
	// Index is the position of the page in the category's page sequence.
	Index int
	// Records is the number of records listed on the page.
	Records int
	Payload Payload
}
