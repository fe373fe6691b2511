package book

import (
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeISBNDuplicate, "错误：ISBN 编号已存在！")

	// ErrImportFormat 导入的数据不是JSON数组
	ErrImportFormat = apperrors.New(apperrors.ErrCodeImportFormat, "导入失败：无效的文件格式")

	// ErrInvalidFields 必填字段为空
	ErrInvalidFields = apperrors.New(apperrors.ErrCodeInvalidParams, "书名、作者、ISBN和分类均不能为空")
)
