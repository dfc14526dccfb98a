package model

// Conventional column names the ticket lifecycle relies on.
const (
	FallbackColumnName = "To Do"
	DoneColumnName     = "Done"
)

// Column is one Kanban lane. NextCol is the id of the column displayed right
// after this one, or chain.Tail (-1) for the last column.
type Column struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID int64  `gorm:"not null;index;uniqueIndex:uq_columns_project_name,priority:1" json:"project_id"`
	Name      string `gorm:"not null;uniqueIndex:uq_columns_project_name,priority:2" json:"name"`
	Max       int    `gorm:"not null;default:0" json:"max"`
	Size      int    `gorm:"not null;default:0" json:"size"`
	NextCol   int64  `gorm:"not null;default:-1;index" json:"next_col"`
}

func (c Column) LinkID() int64   { return c.ID }
func (c Column) LinkNext() int64 { return c.NextCol }
