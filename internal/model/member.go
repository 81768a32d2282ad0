package model

import "time"

// Member 定义了 members 表的 ORM 模型，对应 HIPMI 的一名 pengurus（理事）。
// 可选字段均为指针，以区分“缺失”和“空字符串”。
type Member struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	No           *int    `json:"no"`
	Name         *string `gorm:"type:varchar(255);index" json:"name"`
	Jabatan      *string `gorm:"type:varchar(255);index" json:"jabatan"`
	StatusKTA    *string `gorm:"column:status_kta;type:varchar(100)" json:"status_kta"`
	NoKTA        *string `gorm:"column:no_kta;type:varchar(100)" json:"no_kta"`
	TanggalLahir *string `gorm:"type:varchar(50)" json:"tanggal_lahir"`
	Usia         *int    `gorm:"index" json:"usia"`
	JenisKelamin *string `gorm:"type:varchar(20);index" json:"jenis_kelamin"`

	Phone     *string `gorm:"type:varchar(50)" json:"phone"`
	Email     *string `gorm:"type:varchar(255);index" json:"email"`
	Instagram *string `gorm:"type:varchar(255)" json:"instagram"`

	NamaPerusahaan           *string `gorm:"type:varchar(255)" json:"nama_perusahaan"`
	JabatanDlmAktaPerusahaan *string `gorm:"type:varchar(255)" json:"jabatan_dlm_akta_perusahaan"`
	KategoriBidangUsaha      *string `gorm:"type:varchar(255);index" json:"kategori_bidang_usaha"`
	AlamatPerusahaan         *string `gorm:"type:text" json:"alamat_perusahaan"`
	PerusahaanBerdiriSejak   *string `gorm:"type:varchar(50)" json:"perusahaan_berdiri_sejak"`
	JmlhKaryawan             *int    `json:"jmlh_karyawan"`

	Website  *string `gorm:"type:varchar(255)" json:"website"`
	Twitter  *string `gorm:"type:varchar(255)" json:"twitter"`
	Facebook *string `gorm:"type:varchar(255)" json:"facebook"`
	Youtube  *string `gorm:"type:varchar(255)" json:"youtube"`

	// 兼容旧数据的字段
	Position       *string `gorm:"type:varchar(255)" json:"position"`
	Organization   *string `gorm:"type:varchar(255)" json:"organization"`
	MembershipType *string `gorm:"type:varchar(100)" json:"membership_type"`
	Status         *string `gorm:"type:varchar(100)" json:"status"`
	Region         *string `gorm:"type:varchar(100)" json:"region"`
	EntryYear      *int    `json:"entry_year"`

	JoinedDate *time.Time `json:"joined_date"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Member) TableName() string {
	return "members"
}

// GroupCount 是按某列分组计数的一行结果。
type GroupCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Str 解引用可选字符串，nil 返回空串。
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StrOr 解引用可选字符串，nil 或空串返回 fallback。
func StrOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
