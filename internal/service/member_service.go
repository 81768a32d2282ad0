package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nggaadaotak/kintari-be/internal/model"
	"github.com/nggaadaotak/kintari-be/internal/repository"
	"github.com/nggaadaotak/kintari-be/pkg/log"
)

// ErrInvalidCSV 表示上传的文件不是可读的 CSV。
var ErrInvalidCSV = errors.New("invalid csv file")

// ImportResult 是一次 CSV 导入的结果。
type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
	Message  string   `json:"message"`
}

// MemberService 接口定义了成员名册相关的业务操作。
type MemberService interface {
	ImportCSV(ctx context.Context, filename string, data []byte) (*ImportResult, error)
	List(ctx context.Context) ([]model.Member, error)
}

type memberService struct {
	memberRepo repository.MemberRepository
}

// NewMemberService 创建一个新的 MemberService 实例。
func NewMemberService(memberRepo repository.MemberRepository) MemberService {
	return &memberService{memberRepo: memberRepo}
}

func (s *memberService) List(ctx context.Context) ([]model.Member, error) {
	return s.memberRepo.FindAll(ctx)
}

// ImportCSV 解析 CSV 并一次性批量写入。单行解析失败记录为 "Row N: …" 并跳过该行。
func (s *memberService) ImportCSV(ctx context.Context, filename string, data []byte) (*ImportResult, error) {
	if !strings.HasSuffix(strings.ToLower(filepath.Base(filename)), ".csv") {
		return nil, fmt.Errorf("%w: only CSV files are allowed", ErrInvalidCSV)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: file is not valid UTF-8", ErrInvalidCSV)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return &ImportResult{Errors: []string{}, Message: importMessage(0)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var members []model.Member
	rowErrors := []string{}
	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
			}
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		members = append(members, memberFromRow(rowFields(header, record)))
	}

	if len(members) > 0 {
		if err := s.memberRepo.BatchCreate(ctx, members); err != nil {
			return nil, fmt.Errorf("保存成员数据失败: %w", err)
		}
	}
	log.Infof("[MemberService] CSV 导入完成, 文件: %s, 导入: %d, 错误: %d", filename, len(members), len(rowErrors))
	return &ImportResult{Imported: len(members), Errors: rowErrors, Message: importMessage(len(members))}, nil
}

func importMessage(n int) string {
	return fmt.Sprintf("Successfully imported %d pengurus from CSV", n)
}

type row map[string]string

func rowFields(header, record []string) row {
	r := make(row, len(header))
	for i, name := range header {
		if i < len(record) {
			r[name] = record[i]
		}
	}
	return r
}

// str 返回去除空白后的值，空值为 nil。
func (r row) str(key string) *string {
	v := strings.TrimSpace(r[key])
	if v == "" {
		return nil
	}
	return &v
}

// int 仅在值全部由数字组成时返回整数。
func (r row) int(key string) *int {
	v := strings.TrimSpace(r[key])
	if v == "" {
		return nil
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func memberFromRow(r row) model.Member {
	return model.Member{
		No:                       r.int("no"),
		Name:                     r.str("nama"),
		Jabatan:                  r.str("jabatan"),
		StatusKTA:                r.str("status_kta"),
		NoKTA:                    r.str("no_kta"),
		TanggalLahir:             r.str("tanggal_lahir"),
		Usia:                     r.int("usia"),
		JenisKelamin:             r.str("jenis_kelamin"),
		Phone:                    r.str("whatsapp"),
		Email:                    r.str("email"),
		Instagram:                r.str("instagram"),
		NamaPerusahaan:           r.str("nama_perusahaan"),
		JabatanDlmAktaPerusahaan: r.str("jabatan_dlm_akta_perusahaan"),
		KategoriBidangUsaha:      r.str("kategori_bidang_usaha"),
		AlamatPerusahaan:         r.str("alamat_perusahaan"),
		PerusahaanBerdiriSejak:   r.str("perusahaan_berdiri_sejak"),
		JmlhKaryawan:             r.int("jmlh_karyawan"),
		Website:                  r.str("website"),
		Twitter:                  r.str("twitter"),
		Facebook:                 r.str("facebook"),
		Youtube:                  r.str("youtube"),
		Position:                 r.str("jabatan"),
		Organization:             r.str("kategori_bidang_usaha"),
	}
}
