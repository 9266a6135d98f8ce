package domain

import "time"

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityGroup   Visibility = "group"
	VisibilityPublic  Visibility = "public"
)

type FileType string

const (
	FileTypeDoc   FileType = "doc"
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
	FileTypeText  FileType = "text"
)

type ActivityType string

const (
	ActivityUpload  ActivityType = "upload"
	ActivityView    ActivityType = "view"
	ActivityRate    ActivityType = "rate"
	ActivityComment ActivityType = "comment"
	ActivityShare   ActivityType = "share"
)

// PermissionAdmin grants elevated capability (edit or delete any document).
const PermissionAdmin = "admin"

type Document struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Summary      string     `json:"summary"`
	Tags         []string   `json:"tags"`
	Author       string     `json:"author"`
	AuthorID     string     `json:"authorId"`
	Department   string     `json:"department"`
	Visibility   Visibility `json:"visibility"`
	Rating       float64    `json:"rating"`
	TotalRatings int        `json:"totalRatings"`
	Views        int        `json:"views"`
	FileType     FileType   `json:"fileType,omitempty"`
	FileName     string     `json:"fileName,omitempty"`
	FileSize     int64      `json:"fileSize,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Comments     []Comment  `json:"comments"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (d Document) Clone() Document {
	out := d
	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	if d.Comments != nil {
		out.Comments = make([]Comment, len(d.Comments))
		for i, c := range d.Comments {
			out.Comments[i] = c.Clone()
		}
	}
	return out
}

// DocumentDraft carries the caller-supplied fields of a new document.
// System fields (id, timestamps, engagement counters) are assigned on create.
type DocumentDraft struct {
	Title      string     `json:"title" validate:"required,max=300"`
	Content    string     `json:"content"`
	Summary    string     `json:"summary"`
	Tags       []string   `json:"tags" validate:"dive,required"`
	Author     string     `json:"author"`
	AuthorID   string     `json:"authorId"`
	Department string     `json:"department"`
	Visibility Visibility `json:"visibility" validate:"required,oneof=private group public"`
	FileType   FileType   `json:"fileType,omitempty" validate:"omitempty,oneof=doc pdf image text"`
	FileName   string     `json:"fileName,omitempty"`
	FileSize   int64      `json:"fileSize,omitempty" validate:"gte=0,lte=10485760"`
	MimeType   string     `json:"mimeType,omitempty" validate:"omitempty,uploadmime"`
}

// DocumentPatch is a partial update. Nil fields are left untouched; id,
// createdAt and authorId have no counterpart here and cannot change.
type DocumentPatch struct {
	Title      *string     `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Content    *string     `json:"content,omitempty"`
	Summary    *string     `json:"summary,omitempty"`
	Tags       *[]string   `json:"tags,omitempty" validate:"omitempty,dive,required"`
	Author     *string     `json:"author,omitempty"`
	Department *string     `json:"department,omitempty"`
	Visibility *Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=private group public"`
	FileType   *FileType   `json:"fileType,omitempty" validate:"omitempty,oneof=doc pdf image text"`
	FileName   *string     `json:"fileName,omitempty"`
	FileSize   *int64      `json:"fileSize,omitempty" validate:"omitempty,gte=0,lte=10485760"`
}

// Apply merges the patch into d. It does not touch timestamps.
func (p DocumentPatch) Apply(d *Document) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.Summary != nil {
		d.Summary = *p.Summary
	}
	if p.Tags != nil {
		d.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Author != nil {
		d.Author = *p.Author
	}
	if p.Department != nil {
		d.Department = *p.Department
	}
	if p.Visibility != nil {
		d.Visibility = *p.Visibility
	}
	if p.FileType != nil {
		d.FileType = *p.FileType
	}
	if p.FileName != nil {
		d.FileName = *p.FileName
	}
	if p.FileSize != nil {
		d.FileSize = *p.FileSize
	}
}

type Comment struct {
	ID        string     `json:"id"`
	Author    string     `json:"author"`
	AuthorID  string     `json:"authorId"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	Reactions []Reaction `json:"reactions"`
}

func (c Comment) Clone() Comment {
	out := c
	if c.Reactions != nil {
		out.Reactions = make([]Reaction, len(c.Reactions))
		for i, r := range c.Reactions {
			out.Reactions[i] = Reaction{Emoji: r.Emoji, Users: append([]string(nil), r.Users...)}
		}
	}
	return out
}

type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
}

type User struct {
	ID              string   `json:"id"`
	Username        string   `json:"username,omitempty"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Avatar          string   `json:"avatar,omitempty"`
	Role            string   `json:"role"`
	Department      string   `json:"department"`
	IsAuthenticated bool     `json:"isAuthenticated"`
	Permissions     []string `json:"permissions"`
	Badges          []Badge  `json:"badges"`
}

// HasPermission reports whether the user holds the given capability string.
func (u User) HasPermission(p string) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

type Badge struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type Activity struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	User      string       `json:"user"`
	Action    string       `json:"action"`
	Target    string       `json:"target"`
	TargetID  string       `json:"targetId"`
	Timestamp time.Time    `json:"timestamp"`
	Type      ActivityType `json:"type"`
}

// DateRange bounds createdAt inclusively; a nil end is open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

type SearchFilters struct {
	Query      string    `json:"query"`
	Tags       []string  `json:"tags"`
	DateRange  DateRange `json:"dateRange"`
	Department string    `json:"department"`
	Visibility string    `json:"visibility"`
	FileType   string    `json:"fileType"`
}

// SearchHit is a document-like summary returned by the remote search API.
type SearchHit struct {
	DocumentID   string    `json:"documentId"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	CommentCount int       `json:"commentCount"`
}
