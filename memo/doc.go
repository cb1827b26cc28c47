// Package memo is an embedded document store that keeps a homogeneous
// collection of identifiable records in a single pretty-printed JSON file,
// mirrored in memory for lookups.
//
// The file holds a JSON object mapping each record's identity to the record.
// Every mutation rewrites the whole file atomically, so the file and the
// in-memory collection agree after each successful call.
//
//	type Task struct {
//		memo.ID
//		Title string `json:"title"`
//	}
//
//	db, err := memo.Open[Task]("./tasks.json")
//	err = db.Push(Task{Title: "write docs"})
package memo

// Doc is the identity capability every stored record must provide.
// An empty identity means none has been assigned yet.
type Doc interface {
	GetID() string
	SetID(id string)
}

// Pointer constrains PT to *T implementing Doc, so a Database can hold
// records by value while assigning identities through their pointers.
type Pointer[T any] interface {
	*T
	Doc
}

// ID provides the identity field and Doc methods for embedding in a record
// struct. It serializes as "uuid".
type ID struct {
	UUID string `json:"uuid"`
}

func (id *ID) GetID() string {
	return id.UUID
}

func (id *ID) SetID(v string) {
	id.UUID = v
}
