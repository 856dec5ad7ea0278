package model

// Group 帖子所属的主题分组
type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string `json:"title" gorm:"type:varchar(200);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text;not null"`
}

func (Group) TableName() string { return "post_groups" }

func (g Group) String() string { return g.Title }
