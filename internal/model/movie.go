package model

// Movie 电影列表条目（TMDB 目录视图）
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// Genre 电影类型
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany 制片公司
type ProductionCompany struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Video 预告片/花絮
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// CastMember 演职人员
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// Credits 演职员表
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// MovieDetails 电影详情（含 append_to_response 附加数据）
// 所有可选字段在构造时补默认值，调用方拿到的永远是完整结构
type MovieDetails struct {
	Movie
	OriginalTitle       string              `json:"original_title"`
	Tagline             string              `json:"tagline"`
	Runtime             int                 `json:"runtime"`
	Genres              []Genre             `json:"genres"`
	Budget              int64               `json:"budget"`
	Revenue             int64               `json:"revenue"`
	ProductionCompanies []ProductionCompany `json:"production_companies"`
	Videos              []Video             `json:"videos"`
	Credits             Credits             `json:"credits"`
}

// MovieSnapshot 收藏时固化的电影快照，随收藏记录一起持久化
type MovieSnapshot struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}
