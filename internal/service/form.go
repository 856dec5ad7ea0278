package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// PostForm 发帖和编辑提交的表单
// Group 是文本形式的分组 id，空表示不属于分组
type PostForm struct {
	Text  string `form:"text" json:"text" validate:"notblank"`
	Group string `form:"group" json:"group" validate:"omitempty,numeric"`
}

// FormFromPost 用帖子当前内容预填表单
func FormFromPost(post *model.Post) PostForm {
	f := PostForm{Text: post.Text}
	if post.GroupID != nil {
		f.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return f
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidationResult ValidatePostForm 的结果
type ValidationResult struct {
	OK      bool
	Errors  map[string][]string
	Text    string
	GroupID *uint
}

// Err 表单有效时为 nil，否则为 *ValidationError
func (r ValidationResult) Err() error {
	if r.OK {
		return nil
	}
	return &ValidationError{Fields: r.Errors}
}

// ValidatePostForm 校验 text 非空，group 非空时必须是已存在的分组
// 返回去掉首尾空白的 text
func ValidatePostForm(ctx context.Context, groups repository.GroupRepository, form PostForm) (ValidationResult, error) {
	ve := &ValidationError{}
	res := ValidationResult{Text: strings.TrimSpace(form.Text)}

	if err := formValidator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return res, err
		}
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "Text":
				ve.add("text", MsgRequired)
			case "Group":
				ve.add("group", MsgInvalidChoice)
			}
		}
	}

	if form.Group != "" && ve.Fields["group"] == nil {
		id, err := strconv.ParseUint(form.Group, 10, 64)
		if err != nil {
			ve.add("group", MsgInvalidChoice)
		} else {
			g, err := groups.GetByID(ctx, uint(id))
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				ve.add("group", MsgInvalidChoice)
			case err != nil:
				return res, err
			default:
				res.GroupID = &g.ID
			}
		}
	}

	if len(ve.Fields) > 0 {
		res.Errors = ve.Fields
		res.GroupID = nil
		return res, nil
	}
	res.OK = true
	return res, nil
}

// Choice 选择字段的一个选项
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormField 供渲染的表单输入项
type FormField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // char, choice
	Label    string   `json:"label"`
	HelpText string   `json:"help_text"`
	Required bool     `json:"required"`
	Value    string   `json:"value"`
	Choices  []Choice `json:"choices,omitempty"`
}

// FormView 帖子表单的可渲染状态
type FormView struct {
	Fields []FormField `json:"fields"`
}

// Field 按名称查找字段
func (f *FormView) Field(name string) (FormField, bool) {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld, true
		}
	}
	return FormField{}, false
}

func buildFormView(groups []*model.Group, bound PostForm) *FormView {
	choices := make([]Choice, 0, len(groups)+1)
	choices = append(choices, Choice{Value: "", Label: "---------"})
	for _, g := range groups {
		choices = append(choices, Choice{Value: strconv.FormatUint(uint64(g.ID), 10), Label: g.Title})
	}
	return &FormView{Fields: []FormField{
		{
			Name:     "text",
			Type:     "char",
			Label:    "Текст записи",
			HelpText: "Введите текст поста",
			Required: true,
			Value:    bound.Text,
		},
		{
			Name:     "group",
			Type:     "choice",
			Label:    "Название группы",
			HelpText: "Выберите группу (необязательно)",
			Value:    bound.Group,
			Choices:  choices,
		},
	}}
}
