// Package seed holds the static dataset a fresh portal starts from.
package seed

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"knowledgegalaxy/pkg/domain"
	"knowledgegalaxy/pkg/store"
)

//go:embed data/*.json
var dataFS embed.FS

// Credential is a local login. It resolves to the directory user with the
// same username.
type Credential struct {
	Username string
	Password string
}

// Dataset is the full seed: documents in store order (first listed first),
// the activity feed, directory users and local credentials.
type Dataset struct {
	Documents   []domain.Document
	Activities  []domain.Activity
	Users       []domain.User
	Credentials []Credential
}

// MockUser is the portal's demo account.
func MockUser() domain.User {
	return domain.User{
		ID:          "1",
		Username:    "admin",
		Name:        "Nguyễn Thị Minh Anh",
		Email:       "minh.anh@company.com",
		Avatar:      "👩‍💼",
		Role:        "Senior Manager",
		Department:  "Technology",
		Permissions: []string{"read", "write", "delete", domain.PermissionAdmin},
		Badges: []domain.Badge{
			{ID: "1", Name: "Người tiên phong", Icon: "🚀", Color: "from-blue-500 to-purple-600"},
			{ID: "2", Name: "Chuyên gia tri thức", Icon: "🧠", Color: "from-purple-500 to-pink-600"},
			{ID: "3", Name: "Người chia sẻ", Icon: "💫", Color: "from-green-500 to-blue-600"},
		},
	}
}

// Load decodes the embedded dataset.
func Load() (Dataset, error) {
	var ds Dataset
	if err := decode("data/documents.json", &ds.Documents); err != nil {
		return Dataset{}, err
	}
	if err := decode("data/activities.json", &ds.Activities); err != nil {
		return Dataset{}, err
	}
	for i := range ds.Documents {
		if ds.Documents[i].Comments == nil {
			ds.Documents[i].Comments = []domain.Comment{}
		}
	}
	mock := MockUser()
	ds.Users = append([]domain.User{mock}, authorsOf(ds.Documents, mock.ID)...)
	ds.Credentials = []Credential{{Username: mock.Username, Password: "admin123"}}
	return ds, nil
}

// Install writes the dataset into st. Documents already present are left
// alone and the activity feed is only written into an empty log, so a
// durable store can be installed into on every start.
func Install(st store.Store, ds Dataset) error {
	for _, u := range ds.Users {
		if err := st.SaveUser(u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	// Inserts prepend, so walk backwards to keep the listed order.
	for i := len(ds.Documents) - 1; i >= 0; i-- {
		d := ds.Documents[i]
		if err := st.InsertDocument(d); err != nil && !errors.Is(err, store.ErrDuplicateID) {
			return fmt.Errorf("seed document %s: %w", d.ID, err)
		}
	}
	existing, err := st.ListActivities()
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, a := range ds.Activities {
		if err := st.AppendActivity(a); err != nil {
			return fmt.Errorf("seed activity %s: %w", a.ID, err)
		}
	}
	return nil
}

func decode(name string, out any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode seed %s: %w", name, err)
	}
	return nil
}

// authorsOf builds a minimal directory entry for every document author
// other than skipID, in first-seen order.
func authorsOf(docs []domain.Document, skipID string) []domain.User {
	seen := map[string]bool{skipID: true}
	var users []domain.User
	for _, d := range docs {
		if d.AuthorID == "" || seen[d.AuthorID] {
			continue
		}
		seen[d.AuthorID] = true
		users = append(users, domain.User{
			ID:          d.AuthorID,
			Name:        d.Author,
			Department:  d.Department,
			Role:        "Contributor",
			Permissions: []string{"read", "write"},
			Badges:      []domain.Badge{},
		})
	}
	return users
}
