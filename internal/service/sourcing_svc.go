package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"cj_dropship_v1_202608/internal/api/dto"
	"cj_dropship_v1_202608/internal/model"
	"cj_dropship_v1_202608/internal/repository"
	"cj_dropship_v1_202608/pkg/cj"
	"cj_dropship_v1_202608/pkg/utils"
)

// ==================== 选品寻源服务 ====================

// 批量刷新参数
const (
	sourcingBatchLimit     = 200
	sourcingPerItemTimeout = 10 * time.Second
)

// SourcingService 选品寻源的全生命周期
// pending → processing →（found | failed）；found 后可导入一次，
// Imported 标志由 CAS 保证只置位一次
type SourcingService struct {
	sourcingRepo repository.SourcingRepository
	api          SupplierAPI
	importSvc    *ImportService
	locks        *utils.KeyedLock
}

func NewSourcingService(
	sourcingRepo repository.SourcingRepository,
	api SupplierAPI,
	importSvc *ImportService,
) *SourcingService {
	return &SourcingService{
		sourcingRepo: sourcingRepo,
		api:          api,
		importSvc:    importSvc,
		locks:        utils.NewKeyedLock(),
	}
}

// ==================== 创建 ====================

// CreateSourcing 创建寻源请求并提交到 CJ
func (s *SourcingService) CreateSourcing(ctx context.Context, req *dto.CreateSourcingRequest) (*dto.SourcingVO, error) {
	if strings.TrimSpace(req.ProductName) == "" {
		return nil, errors.New("商品名称不能为空")
	}

	result, err := s.api.CreateSourcing(ctx, &cj.CreateSourcingRequest{
		ProductName:  req.ProductName,
		ProductImage: req.ProductImage,
		ProductURL:   req.SourceURL,
		TargetPrice:  req.TargetPrice,
		Remark:       req.Remark,
	})
	if err != nil {
		return nil, fmt.Errorf("CJ 创建寻源失败: %w", err)
	}

	record := &model.SourcingRequest{
		RequestNum:   "SR" + strings.ToUpper(uuid.NewString()[:8]),
		CJSourcingID: result.SourcingID,
		ProductName:  req.ProductName,
		ProductImage: req.ProductImage,
		SourceURL:    req.SourceURL,
		TargetPrice:  req.TargetPrice,
		Remark:       req.Remark,
		Status:       model.SourcingStatusPending,
	}
	if err := s.sourcingRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("寻源请求落库失败: %w", err)
	}

	log.Printf("[Sourcing] 寻源请求创建 requestNum=%s cjSourcingId=%s", record.RequestNum, record.CJSourcingID)
	vo := toSourcingVO(record)
	return &vo, nil
}

// ==================== 刷新 ====================

// Refresh 查询单个寻源请求的远端进度
// 终态请求是空操作；首次查询把 pending 推到 processing
func (s *SourcingService) Refresh(ctx context.Context, id int64) (*dto.SourcingVO, error) {
	unlock := s.locks.Lock(fmt.Sprintf("sourcing:%d", id))
	defer unlock()

	record, err := s.sourcingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if model.IsTerminalSourcingStatus(record.Status) {
		vo := toSourcingVO(record)
		return &vo, nil
	}

	remote, err := s.api.QuerySourcing(ctx, record.CJSourcingID)
	if err != nil {
		return nil, fmt.Errorf("查询 CJ 寻源失败 cjSourcingId=%s: %w", record.CJSourcingID, err)
	}

	now := time.Now()
	fields := map[string]interface{}{"last_checked_at": now}

	switch remote.Status {
	case cj.RemoteSourcingFound:
		fields["status"] = model.SourcingStatusFound
		fields["resolved_pid"] = remote.Pid
		fields["resolved_vid"] = remote.Vid
		fields["resolved_price"] = remote.SellPrice
		fields["found_at"] = now
		record.Status = model.SourcingStatusFound
		record.ResolvedPid = remote.Pid
		record.ResolvedVid = remote.Vid
		record.ResolvedPrice = remote.SellPrice
		record.FoundAt = &now
		log.Printf("[Sourcing] 寻源命中 requestNum=%s pid=%s price=%.2f",
			record.RequestNum, remote.Pid, remote.SellPrice)
	case cj.RemoteSourcingFailed:
		fields["status"] = model.SourcingStatusFailed
		fields["fail_reason"] = remote.Remark
		record.Status = model.SourcingStatusFailed
		record.FailReason = remote.Remark
		log.Printf("[Sourcing] 寻源失败 requestNum=%s reason=%s", record.RequestNum, remote.Remark)
	default:
		// 远端还在匹配
		if record.Status == model.SourcingStatusPending {
			fields["status"] = model.SourcingStatusProcessing
			record.Status = model.SourcingStatusProcessing
		}
	}
	record.LastCheckedAt = &now

	if err := s.sourcingRepo.UpdateFields(ctx, record.ID, fields); err != nil {
		return nil, err
	}
	vo := toSourcingVO(record)
	return &vo, nil
}

// RefreshAll 批量刷新所有未到终态的寻源请求
// 单项失败只计数，不中断整批
func (s *SourcingService) RefreshAll(ctx context.Context) (*dto.RefreshAllResponse, error) {
	records, err := s.sourcingRepo.GetNonTerminal(ctx, sourcingBatchLimit)
	if err != nil {
		return nil, err
	}

	resp := &dto.RefreshAllResponse{}
	for i := range records {
		r := &records[i]
		itemCtx, cancel := context.WithTimeout(ctx, sourcingPerItemTimeout)
		vo, err := s.Refresh(itemCtx, r.ID)
		cancel()

		resp.Checked++
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("requestNum=%s: %v", r.RequestNum, err))
			continue
		}
		switch vo.Status {
		case model.SourcingStatusFound:
			resp.Found++
		case model.SourcingStatusFailed:
			resp.Failed++
		default:
			resp.Pending++
		}

		if ctx.Err() != nil {
			break
		}
	}

	log.Printf("[Sourcing] 批量刷新完成 checked=%d found=%d pending=%d failed=%d",
		resp.Checked, resp.Found, resp.Pending, resp.Failed)
	return resp, nil
}

// ==================== 导入 ====================

// ImportResult 把寻源命中的商品导入本地
// Imported 标志只置位一次：并发导入只有一个赢家，输家拿到
// AlreadyImported 空操作结果而不是错误
func (s *SourcingService) ImportResult(ctx context.Context, id int64, req *dto.ImportSourcingRequest) (*dto.ImportSourcingResponse, error) {
	record, err := s.sourcingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Imported {
		return &dto.ImportSourcingResponse{
			ProductID:       record.LocalProductID,
			CJProductID:     record.ResolvedPid,
			AlreadyImported: true,
		}, nil
	}
	if !record.CanImport() {
		return nil, fmt.Errorf("寻源状态 %s 不允许导入", record.Status)
	}

	result, err := s.importSvc.ImportProduct(ctx, &dto.ImportProductRequest{
		Pid:        record.ResolvedPid,
		CategoryID: req.CategoryID,
		Margin:     req.Margin,
	})
	if err != nil {
		return nil, err
	}

	affected, err := s.sourcingRepo.MarkImported(ctx, record.ID, result.ProductID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// CAS 输了：别的调用方先完成了导入
		fresh, err := s.sourcingRepo.GetByID(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		return &dto.ImportSourcingResponse{
			ProductID:       fresh.LocalProductID,
			CJProductID:     fresh.ResolvedPid,
			AlreadyImported: true,
		}, nil
	}

	log.Printf("[Sourcing] 寻源结果已导入 requestNum=%s productId=%d pid=%s",
		record.RequestNum, result.ProductID, record.ResolvedPid)
	return &dto.ImportSourcingResponse{
		ProductID:   result.ProductID,
		CJProductID: record.ResolvedPid,
	}, nil
}

// ==================== 查询 ====================

// GetSourcing 寻源请求详情
func (s *SourcingService) GetSourcing(ctx context.Context, id int64) (*dto.SourcingVO, error) {
	record, err := s.sourcingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vo := toSourcingVO(record)
	return &vo, nil
}

// ListSourcing 寻源请求列表
func (s *SourcingService) ListSourcing(ctx context.Context, req *dto.ListSourcingRequest) (*dto.ListSourcingResponse, error) {
	records, total, err := s.sourcingRepo.List(ctx, repository.SourcingFilter{
		Status:   req.Status,
		Keyword:  req.Keyword,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	list := make([]dto.SourcingVO, 0, len(records))
	for i := range records {
		list = append(list, toSourcingVO(&records[i]))
	}
	return &dto.ListSourcingResponse{Total: total, List: list}, nil
}

func toSourcingVO(r *model.SourcingRequest) dto.SourcingVO {
	return dto.SourcingVO{
		ID:             r.ID,
		RequestNum:     r.RequestNum,
		CJSourcingID:   r.CJSourcingID,
		ProductName:    r.ProductName,
		ProductImage:   r.ProductImage,
		TargetPrice:    r.TargetPrice,
		Status:         r.Status,
		ResolvedPid:    r.ResolvedPid,
		ResolvedVid:    r.ResolvedVid,
		ResolvedPrice:  r.ResolvedPrice,
		FailReason:     r.FailReason,
		Imported:       r.Imported,
		LocalProductID: r.LocalProductID,
		LastCheckedAt:  r.LastCheckedAt,
		FoundAt:        r.FoundAt,
		CreatedAt:      r.CreatedAt,
	}
}
