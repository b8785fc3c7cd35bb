package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/internal/crypto"
)

// connectionDocument is the stored form of one ranked connection. Credentials and extension
// values are encrypted.
type connectionDocument struct {
	ID             bson.ObjectID     `bson:"_id,omitempty"`
	UserID         string            `bson:"user_id"`
	ProviderID     string            `bson:"provider_id"`
	ProviderUserID string            `bson:"provider_user_id"`
	Rank           int               `bson:"rank"`
	DisplayName    string            `bson:"display_name,omitempty"`
	ProfileURL     string            `bson:"profile_url,omitempty"`
	ImageURL       string            `bson:"image_url,omitempty"`
	AccessToken    string            `bson:"access_token,omitempty"`
	RefreshToken   string            `bson:"refresh_token,omitempty"`
	Secret         string            `bson:"secret,omitempty"`
	ExpireTime     *time.Time        `bson:"expire_time,omitempty"`
	Extension      map[string]string `bson:"extension,omitempty"`
	CreatedAt      time.Time         `bson:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at"`
}

func newConnectionDocument(enc crypto.TextEncryptor, userID string, rank int, record *domain.ConnectionRecord, now time.Time) (*connectionDocument, error) {
	doc := &connectionDocument{
		UserID:         userID,
		ProviderID:     record.ProviderID,
		ProviderUserID: record.ProviderUserID,
		Rank:           rank,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := doc.setProfile(enc, record); err != nil {
		return nil, err
	}
	return doc, nil
}

// setProfile copies every non-identifying field of record into the document.
func (d *connectionDocument) setProfile(enc crypto.TextEncryptor, record *domain.ConnectionRecord) error {
	var err error

	d.DisplayName = record.DisplayName
	d.ProfileURL = record.ProfileURL
	d.ImageURL = record.ImageURL

	if d.AccessToken, err = enc.Encrypt(record.AccessToken); err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	if d.RefreshToken, err = enc.Encrypt(record.RefreshToken); err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}
	if d.Secret, err = enc.Encrypt(record.Secret); err != nil {
		return fmt.Errorf("encrypt secret: %w", err)
	}

	d.ExpireTime = nil
	if record.ExpireTime != nil {
		t := record.ExpireTime.UTC()
		d.ExpireTime = &t
	}

	d.Extension = nil
	if len(record.Extension) > 0 {
		d.Extension = make(map[string]string, len(record.Extension))
		for k, v := range record.Extension {
			if d.Extension[k], err = enc.Encrypt(v); err != nil {
				return fmt.Errorf("encrypt extension %q: %w", k, err)
			}
		}
	}

	return nil
}

// profileUpdate is the $set document of an update that keeps identity and rank.
func (d *connectionDocument) profileUpdate() bson.D {
	return bson.D{
		{Key: "display_name", Value: d.DisplayName},
		{Key: "profile_url", Value: d.ProfileURL},
		{Key: "image_url", Value: d.ImageURL},
		{Key: "access_token", Value: d.AccessToken},
		{Key: "refresh_token", Value: d.RefreshToken},
		{Key: "secret", Value: d.Secret},
		{Key: "expire_time", Value: d.ExpireTime},
		{Key: "extension", Value: d.Extension},
		{Key: "updated_at", Value: d.UpdatedAt},
	}
}

func (d *connectionDocument) record(enc crypto.TextEncryptor) (*domain.ConnectionRecord, error) {
	record := &domain.ConnectionRecord{
		ProviderID:     d.ProviderID,
		ProviderUserID: d.ProviderUserID,
		DisplayName:    d.DisplayName,
		ProfileURL:     d.ProfileURL,
		ImageURL:       d.ImageURL,
	}

	var err error
	if record.AccessToken, err = enc.Decrypt(d.AccessToken); err != nil {
		return nil, fmt.Errorf("decrypt access token of %s: %w", record.Key(), err)
	}
	if record.RefreshToken, err = enc.Decrypt(d.RefreshToken); err != nil {
		return nil, fmt.Errorf("decrypt refresh token of %s: %w", record.Key(), err)
	}
	if record.Secret, err = enc.Decrypt(d.Secret); err != nil {
		return nil, fmt.Errorf("decrypt secret of %s: %w", record.Key(), err)
	}

	if d.ExpireTime != nil {
		t := *d.ExpireTime
		record.ExpireTime = &t
	}

	if len(d.Extension) > 0 {
		record.Extension = make(map[string]string, len(d.Extension))
		for k, v := range d.Extension {
			if record.Extension[k], err = enc.Decrypt(v); err != nil {
				return nil, fmt.Errorf("decrypt extension %q of %s: %w", k, record.Key(), err)
			}
		}
	}

	return record, nil
}
