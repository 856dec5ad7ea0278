package model

import "time"

// PreviewLength String() 保留的文本字符数
const PreviewLength = 15

// Post 帖子；GroupID 为空表示不属于任何分组
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"index:idx_post_pub_date;not null"`
	AuthorID string    `json:"author_id" gorm:"type:varchar(36);index:idx_post_author;not null"`
	Author   *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID  *uint     `json:"group_id" gorm:"index:idx_post_group"`
	Group    *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`

	// PostLength 文本字符数，只在列表查询里由数据库计算
	PostLength int `json:"post_length,omitempty" gorm:"->;-:migration"`
}

func (Post) TableName() string { return "posts" }

func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) > PreviewLength {
		r = r[:PreviewLength]
	}
	return string(r)
}
