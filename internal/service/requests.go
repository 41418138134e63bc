package service

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/journalize/internal/model"
)

// The request types below are what handlers decode JSON bodies into. They
// carry raw client values; validate() checks them and the to* methods turn
// them into model inputs. Fields the client must not set (id, userId,
// createdAt, updatedAt) have no field here, so decoding drops them.

type CreateJournalRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Type     string   `json:"type"`
	FolderID *int64   `json:"folderId"`
	Tags     []string `json:"tags"`
	Mood     string   `json:"mood"`
	Date     string   `json:"date"`
}

func (r *CreateJournalRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, isRequired, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&r.Content, validation.Length(0, MaxContentLength)),
		validation.Field(&r.Type, isRequired, journalType),
		validation.Field(&r.Mood, validation.RuneLength(0, MaxMoodLength)),
		validation.Field(&r.Date, isRequired, isoDate),
	)
}

func (r *CreateJournalRequest) toInput() (model.JournalInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return model.JournalInput{}, err
	}
	return model.JournalInput{
		Title:    r.Title,
		Content:  r.Content,
		Type:     model.JournalType(r.Type),
		FolderID: r.FolderID,
		Tags:     r.Tags,
		Mood:     r.Mood,
		Date:     &date,
	}, nil
}

// UpdateJournalRequest is the partial form: nil means "not sent". A JSON
// null decodes to nil too, so null and absent behave the same everywhere
// except folderId, where null clears the folder.
type UpdateJournalRequest struct {
	Title    *string             `json:"title"`
	Content  *string             `json:"content"`
	Type     *string             `json:"type"`
	FolderID model.OptionalInt64 `json:"folderId"`
	Tags     []string            `json:"tags"`
	Mood     *string             `json:"mood"`
	Date     *string             `json:"date"`
}

func (r *UpdateJournalRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, notBlank, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&r.Content, validation.Length(0, MaxContentLength)),
		validation.Field(&r.Type, notBlank, journalType),
		validation.Field(&r.Mood, validation.RuneLength(0, MaxMoodLength)),
		validation.Field(&r.Date, notBlank, isoDate),
	)
}

func (r *UpdateJournalRequest) toPatch() (model.JournalPatch, error) {
	p := model.JournalPatch{
		Title:    r.Title,
		Content:  r.Content,
		FolderID: r.FolderID,
		Tags:     r.Tags,
		Mood:     r.Mood,
	}
	if r.Type != nil {
		t := model.JournalType(*r.Type)
		p.Type = &t
	}
	if r.Date != nil {
		date, err := parseDate(*r.Date)
		if err != nil {
			return model.JournalPatch{}, err
		}
		p.Date = &date
	}
	return p, nil
}

type CreateFolderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parentId"`
}

func (r *CreateFolderRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, isRequired, validation.RuneLength(1, MaxFolderNameLength)),
	)
}

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// validateNew applies the account rules. Login only checks presence, so a
// user created under older rules can still sign in.
func (r *CredentialsRequest) validateNew() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username,
			isRequired,
			validation.RuneLength(MinUsernameLength, MaxUsernameLength),
			validation.Match(usernamePattern).Error("may only contain letters, digits, '_', '.' and '-'"),
		),
		validation.Field(&r.Password, isRequired, validation.Length(MinPasswordLength, MaxPasswordLength)),
	)
}

func (r *CredentialsRequest) validateLogin() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, isRequired),
		validation.Field(&r.Password, isRequired),
	)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r *ChangePasswordRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CurrentPassword, isRequired),
		validation.Field(&r.NewPassword, isRequired, validation.Length(MinPasswordLength, MaxPasswordLength)),
	)
}
