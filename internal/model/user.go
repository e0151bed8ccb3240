// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID         string
	Email      string
	Name       string
	GivenName  string
	PictureURL string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// providerはフェデレーションログイン時のプロバイダーラベル（"google"等）。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
	LastLoginAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// セッションの中身はサーバー側で管理し、クライアントにはIDのみを渡す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Profile は画面表示用の読み取り専用ユーザー情報。
// ページ表示のたびにセッションから取得し直す。
type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	PictureURL  string `json:"picture,omitempty"`
}

// defaultDisplayName は名前が取得できない場合の表示名。
const defaultDisplayName = "Friend"

// ProfileFromUser はUserからProfileを組み立てる。
// 表示名は name → given_name → "Friend" の順にフォールバックする。
func ProfileFromUser(u *User) *Profile {
	name := u.Name
	if name == "" {
		name = u.GivenName
	}
	if name == "" {
		name = defaultDisplayName
	}
	return &Profile{
		UserID:      u.ID,
		DisplayName: name,
		Email:       u.Email,
		PictureURL:  u.PictureURL,
	}
}
