package repository

import (
	"context"
	"fmt"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"gorm.io/gorm"
)

// 允许按列统计的成员字段。
var memberColumns = map[string]struct{}{
	"jabatan":               {},
	"kategori_bidang_usaha": {},
	"status_kta":            {},
	"jenis_kelamin":         {},
}

// MemberRepository 接口定义了成员名册的查询与导入操作。
type MemberRepository interface {
	FindAll(ctx context.Context) ([]model.Member, error)
	Count(ctx context.Context) (int64, error)
	BatchCreate(ctx context.Context, members []model.Member) error
	CountContains(ctx context.Context, column, substr string) (int64, error)
	CountEquals(ctx context.Context, column, value string) (int64, error)
	GroupCounts(ctx context.Context, column string) ([]model.GroupCount, error)
	FirstByNameContains(ctx context.Context, substr string) (*model.Member, error)
	SumEmployees(ctx context.Context) (total int64, contributors int64, err error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建一个新的 MemberRepository 实例。
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func checkColumn(column string) error {
	if _, ok := memberColumns[column]; !ok {
		return fmt.Errorf("不支持的成员字段: %s", column)
	}
	return nil
}

// FindAll 按主键顺序返回全部成员。
func (r *memberRepository) FindAll(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).Order("id").Find(&members).Error
	return members, err
}

// Count 返回成员总数。
func (r *memberRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Member{}).Count(&n).Error
	return n, err
}

// BatchCreate 在一个事务中写入一批成员。
func (r *memberRepository) BatchCreate(ctx context.Context, members []model.Member) error {
	if len(members) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(members, 200).Error
}

// CountContains 统计 column 包含 substr（不区分大小写）的成员数。
func (r *memberRepository) CountContains(ctx context.Context, column, substr string) (int64, error) {
	if err := checkColumn(column); err != nil {
		return 0, err
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Member{}).
		Where(fmt.Sprintf("LOWER(%s) LIKE ?", column), containsPattern(substr)).
		Count(&n).Error
	return n, err
}

// CountEquals 统计 column 等于 value 的成员数。
func (r *memberRepository) CountEquals(ctx context.Context, column, value string) (int64, error) {
	if err := checkColumn(column); err != nil {
		return 0, err
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Member{}).
		Where(fmt.Sprintf("%s = ?", column), value).
		Count(&n).Error
	return n, err
}

// GroupCounts 按 column 的非空值分组计数，按数量倒序、值升序排列。
func (r *memberRepository) GroupCounts(ctx context.Context, column string) ([]model.GroupCount, error) {
	if err := checkColumn(column); err != nil {
		return nil, err
	}
	var rows []model.GroupCount
	err := r.db.WithContext(ctx).Model(&model.Member{}).
		Select(fmt.Sprintf("%s AS value, COUNT(*) AS count", column)).
		Where(fmt.Sprintf("%s IS NOT NULL", column)).
		Group(column).
		Order("count DESC, value ASC").
		Scan(&rows).Error
	return rows, err
}

// FirstByNameContains 返回姓名包含 substr 的第一个成员（按主键）。
func (r *memberRepository) FirstByNameContains(ctx context.Context, substr string) (*model.Member, error) {
	var m model.Member
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", containsPattern(substr)).
		Order("id").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SumEmployees 返回员工数之和以及填写了员工数的成员数。
func (r *memberRepository) SumEmployees(ctx context.Context) (int64, int64, error) {
	var row struct {
		Total        int64
		Contributors int64
	}
	err := r.db.WithContext(ctx).Model(&model.Member{}).
		Select("COALESCE(SUM(jmlh_karyawan), 0) AS total, COUNT(jmlh_karyawan) AS contributors").
		Where("jmlh_karyawan IS NOT NULL").
		Scan(&row).Error
	return row.Total, row.Contributors, err
}
